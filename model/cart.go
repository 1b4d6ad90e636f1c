package model

type CartStatus string

const (
	CartActive    CartStatus = "active"
	CartCompleted CartStatus = "completed"
)

type CartItem struct {
	ProductID   string  `json:"productId" bson:"productId"`
	ProductName string  `json:"productName" bson:"productName"`
	Quantity    int     `json:"quantity" bson:"quantity"`
	Price       float64 `json:"price" bson:"price"`
	Image       string  `json:"image" bson:"image"`
}

// Cart is embedded in its owning user. Version is bumped by the store on
// every cart write and is what compare-and-swap updates are conditioned on.
type Cart struct {
	Items      []CartItem `json:"items" bson:"items"`
	TotalPrice float64    `json:"totalPrice" bson:"totalPrice"`
	Status     CartStatus `json:"status" bson:"status"`
	Version    int64      `json:"version" bson:"version"`
}

// NewCart returns an empty active cart.
func NewCart() Cart {
	return Cart{Items: []CartItem{}, Status: CartActive}
}

func (c Cart) Clone() Cart {
	if c.Items != nil {
		items := make([]CartItem, len(c.Items))
		copy(items, c.Items)
		c.Items = items
	}
	return c
}

func (c Cart) IsEmpty() bool { return len(c.Items) == 0 }

// Line returns the index of the line for productID, or -1.
func (c Cart) Line(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// Recompute sets TotalPrice to the rounded sum of quantity × price.
func (c *Cart) Recompute() {
	var total float64
	for _, it := range c.Items {
		total += float64(it.Quantity) * it.Price
	}
	c.TotalPrice = Round2(total)
}

// Add puts one unit of p in the cart. A new line snapshots p's price; an
// existing line keeps the price it was created with.
func (c *Cart) Add(p Product) {
	if i := c.Line(p.ID); i >= 0 {
		c.Items[i].Quantity++
	} else {
		c.Items = append(c.Items, CartItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    1,
			Price:       p.Price,
			Image:       p.ImageRef,
		})
	}
	c.Recompute()
}

// Remove takes amount units of productID out of the cart and returns the
// quantity actually removed. It returns 0 when there is no such line.
func (c *Cart) Remove(productID string, amount int) int {
	i := c.Line(productID)
	if i < 0 || amount < 1 {
		return 0
	}
	line := c.Items[i]
	switch {
	case line.Quantity > amount:
		c.Items[i].Quantity -= amount
		c.Recompute()
		return amount
	case len(c.Items) == 1:
		c.Items = []CartItem{}
		c.TotalPrice = 0
		c.Status = CartActive
		return line.Quantity
	default:
		c.Items = append(c.Items[:i:i], c.Items[i+1:]...)
		c.Recompute()
		return line.Quantity
	}
}

// Restore puts qty units of line back, merging into an existing line for the
// same product. The line keeps its original price snapshot.
func (c *Cart) Restore(line CartItem, qty int) {
	if qty < 1 {
		return
	}
	if i := c.Line(line.ProductID); i >= 0 {
		c.Items[i].Quantity += qty
	} else {
		line.Quantity = qty
		c.Items = append(c.Items, line)
	}
	c.Status = CartActive
	c.Recompute()
}

// Purge drops every line for the given products and returns the removed lines.
func (c *Cart) Purge(productIDs ...string) []CartItem {
	var removed []CartItem
	kept := make([]CartItem, 0, len(c.Items))
	for _, it := range c.Items {
		if Contains(productIDs, it.ProductID) {
			removed = append(removed, it)
			continue
		}
		kept = append(kept, it)
	}
	if len(removed) > 0 {
		c.Items = kept
		c.Recompute()
	}
	return removed
}

// Checkout completes the cart. It returns the order lines, deep-copied so
// later catalog edits never reach them, the completed cart, and the fresh
// active cart that replaces it.
func (c Cart) Checkout() (items []OrderItem, completed Cart, fresh Cart) {
	items = make([]OrderItem, len(c.Items))
	for i, it := range c.Items {
		items[i] = OrderItem(it)
	}
	completed = c.Clone()
	completed.Status = CartCompleted
	fresh = NewCart()
	fresh.Version = c.Version
	return items, completed, fresh
}
