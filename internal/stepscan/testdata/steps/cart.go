package cartsteps

import "fmt"

type cart struct {
	items []string
}

// AnEmptyCart sets up a fresh cart for the scenario.
// @tursu given `an empty cart`
func AnEmptyCart() *cart {
	return &cart{}
}

// AddItem puts one item into the cart.
// @tursu when `I add a {item:string}`
func AddItem(item string, c *cart) {
	c.items = append(c.items, item)
}

// helper is not a step definition.
func helper(c *cart) string {
	return fmt.Sprintf("%d items", len(c.items))
}
