// Package mapping reads recipe files: YAML documents describing name
// mappings of models and linkings of converters, turned into providers.
//
// # Schema Overview
//
//	version: "1"
//	types:
//	  - type: app.Weather
//	    name_style: camelCase
//	    map:
//	      Name: main                 # a data key
//	      IconID: [weather, 0, icon] # a path of keys and indexes
//	      Internal: null             # skipped
//	    skip: [Debug]
//	    only: []
//	    as_list: false
//	    trim_trailing_underscore: true
//	    omit_default: [Comment]
//	    extra_in: forbid             # skip, forbid, kwargs or field ids
//	    extra_out: Extra             # skip or field ids
//	conversions:
//	  - source: store.Order
//	    target: warehouse.Order
//	    # Simplified 1:1 linkings, source field: target field
//	    121:
//	      OrderID: ID
//	    fields:
//	      - target: Status
//	        default: pending         # a constant
//	      - target: Amount
//	        source: Price
//	        transform: CentsToAmount # a registered coercer
//	      - target: Total
//	        func: OrderTotal         # a registered linking function
//	    # Optional target fields left unlinked
//	    ignore:
//	      - Note
//
// # Names
//
// Type, transform and function names are resolved by a Registry. A type
// name is its full name ("retort/app.Weather"), its short form
// ("app.Weather") or its bare name when unique ("Weather").
//
// # Priority Order
//
// Within a conversion, "121" linkings come first, then "fields", then
// "ignore". Recipe file providers go in front of the default recipe, so
// they override automatic linkings by field id.
package mapping
