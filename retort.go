package retort

import (
	"log/slog"

	"retort/internal/codegen"
	"retort/internal/convert"
	"retort/internal/engine"
	"retort/internal/envflag"
	"retort/internal/morph"
	"retort/provider"
)

// DebugEnv is the environment variable holding process defaults, e.g.
// RETORT_DEBUG=trail=first,strict=false,codegen=/tmp/retort.
const DebugEnv = "RETORT_DEBUG"

type (
	// Provider is a recipe entry.
	Provider = provider.Provider
	// LoaderFunc turns data into an instance.
	LoaderFunc = provider.Loader
	// DumperFunc turns an instance into data.
	DumperFunc = provider.Dumper
	// CoercerFunc turns a source value into a destination value.
	CoercerFunc = provider.Coercer
	// DebugTrail controls how loaders report the location of errors.
	DebugTrail = provider.DebugTrail
	// ModelLoaderProps tunes model loaders.
	ModelLoaderProps = provider.ModelLoaderProps
	// ProviderNotFoundError is returned when the recipe cannot build a
	// loader, a dumper or a converter.
	ProviderNotFoundError = provider.ProviderNotFoundError
	// Source is a rendered loader, dumper or converter body.
	Source = codegen.Source
	// CodeGenHook receives every rendered source.
	CodeGenHook = codegen.Hook
)

const (
	DebugTrailDisable = provider.DebugTrailDisable
	DebugTrailFirst   = provider.DebugTrailFirst
	DebugTrailAll     = provider.DebugTrailAll
)

// Omitted marks an absent value. Dumpers skip fields holding it.
var Omitted = provider.Omitted

// debugFlags are the process defaults read from DebugEnv.
type debugFlags struct {
	Trail   DebugTrail `envflag:"default:all"`
	Strict  bool       `envflag:"default:true"`
	Codegen string
}

type config struct {
	recipe   []Provider
	strict   bool
	trail    DebugTrail
	props    ModelLoaderProps
	hook     CodeGenHook
	renderer func(error) string
	logger   *slog.Logger
}

// Option configures a Retort.
type Option func(*config)

// WithRecipe appends providers to the user recipe. Providers earlier in
// the recipe take precedence.
func WithRecipe(recipe ...Provider) Option {
	return func(c *config) { c.recipe = append(c.recipe, recipe...) }
}

// WithStrictCoercion turns strict coercion on or off. Strict loaders accept
// only data of the exact kind, e.g. no "1" for an int.
func WithStrictCoercion(strict bool) Option {
	return func(c *config) { c.strict = strict }
}

// WithDebugTrail sets how loaders report the location of errors.
func WithDebugTrail(trail DebugTrail) Option {
	return func(c *config) { c.trail = trail }
}

// WithModelLoaderProps tunes model loaders.
func WithModelLoaderProps(props ModelLoaderProps) Option {
	return func(c *config) { c.props = props }
}

// WithCodeGenHook sets the hook receiving rendered sources.
func WithCodeGenHook(hook CodeGenHook) Option {
	return func(c *config) { c.hook = hook }
}

// WithErrorRenderer replaces the renderer of ProviderNotFoundError
// descriptions.
func WithErrorRenderer(fn func(error) string) Option {
	return func(c *config) { c.renderer = fn }
}

// WithLogger sets the logger receiving debug events.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Retort builds and caches loaders, dumpers and converters from a recipe.
// It is safe for concurrent use. Extend and Replace return new retorts with
// empty caches.
type Retort struct {
	// front holds the providers added by Extend, newest first.
	front  []Provider
	opts   []Option
	cfg    config
	engine *engine.Retort
}

// New creates a retort. Options override the defaults read from DebugEnv.
func New(opts ...Option) *Retort {
	return build(nil, opts)
}

func build(front []Provider, opts []Option) *Retort {
	var flags debugFlags

	envErr := envflag.Init(&flags, DebugEnv)

	cfg := config{strict: flags.Strict, trail: flags.Trail, logger: slog.Default()}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	if envErr != nil {
		cfg.logger.Warn("ignoring malformed debug flags", "error", envErr)
	}

	if cfg.hook == nil && flags.Codegen != "" {
		cfg.hook = codegen.DirHook(flags.Codegen, cfg.logger)
	}

	r := &Retort{
		front: append([]Provider(nil), front...),
		opts:  append([]Option(nil), opts...),
		cfg:   cfg,
	}

	engineOpts := []engine.Option{engine.WithLogger(cfg.logger)}
	if cfg.renderer != nil {
		engineOpts = append(engineOpts, engine.WithRenderer(cfg.renderer))
	}

	r.engine = engine.New(r.fullRecipe(), engineOpts...)

	return r
}

// fullRecipe is the user recipe followed by the built-in one.
func (r *Retort) fullRecipe() []Provider {
	full := r.Recipe()
	full = append(full, convert.Recipe()...)
	full = append(full, morph.Recipe()...)
	full = append(full, morph.Settings(r.cfg.strict, r.cfg.trail, r.cfg.props))

	if r.cfg.hook != nil {
		full = append(full, provider.Value[provider.CodeGenHookRequest](provider.AnyLoc, r.cfg.hook))
	}

	return full
}

// Extend returns a retort whose recipe starts with recipe, followed by
// the recipe of r.
func (r *Retort) Extend(recipe ...Provider) *Retort {
	return build(append(append([]Provider(nil), recipe...), r.front...), r.opts)
}

// Replace returns a retort with the recipe of r and opts applied over the
// options of r.
func (r *Retort) Replace(opts ...Option) *Retort {
	return build(r.front, append(append([]Option(nil), r.opts...), opts...))
}

// Recipe returns the user recipe of r.
func (r *Retort) Recipe() []Provider {
	return append(append([]Provider(nil), r.front...), r.cfg.recipe...)
}
