package retort_test

import (
	"fmt"

	"retort"
	"retort/typing"
)

func Example() {
	r := retort.New()

	p, err := retort.Load[Point](r, map[string]any{"x": 1, "y": 2})
	if err != nil {
		panic(err)
	}

	data, err := retort.Dump(r, p)
	if err != nil {
		panic(err)
	}

	fmt.Printf("%+v\n", p)
	fmt.Println(data)
	// Output:
	// {X:1 Y:2}
	// map[x:1 y:2]
}

func ExampleNameMapping() {
	r := retort.New(retort.WithRecipe(
		retort.NameMapping(typing.Of[Weather](),
			retort.Map{"Name": "main"},
			retort.Skip("IconID"),
		),
	))

	data, err := retort.Dump(r, Weather{ID: 500, Name: "Rain", Description: "light rain", IconID: "10d"})
	if err != nil {
		panic(err)
	}

	fmt.Println(data)
	// Output: map[description:light rain id:500 main:Rain]
}

func ExampleGetConverter() {
	r := retort.New(retort.WithRecipe(retort.Link("B", "BDst")))

	conv, err := retort.GetConverter[Src, Dst](r)
	if err != nil {
		panic(err)
	}

	dst, err := conv(Src{A: 1, B: 2})
	if err != nil {
		panic(err)
	}

	fmt.Printf("%+v\n", dst)
	// Output: {A:1 BDst:2}
}
