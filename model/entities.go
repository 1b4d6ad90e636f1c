package model

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

type OrderStatus string

const (
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// CategoryRef is the denormalized category stored on a product.
type CategoryRef struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

type Product struct {
	ID           string      `json:"id" bson:"_id"`
	Name         string      `json:"name" bson:"name"`
	Slug         string      `json:"slug" bson:"slug"`
	Price        float64     `json:"price" bson:"price"`
	Category     CategoryRef `json:"category" bson:"category"`
	ItemsInStock int         `json:"itemsInStock" bson:"itemsInStock"`
	FavoritedBy  []string    `json:"favoritedBy" bson:"favoritedBy"`
	CreatedBy    string      `json:"createdBy" bson:"createdBy"`
	ImageRef     string      `json:"imageRef" bson:"imageRef"`
	CreatedAt    time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt" bson:"updatedAt"`
}

func (p Product) EntityID() string { return p.ID }

func (p Product) Clone() Product {
	p.FavoritedBy = cloneStrings(p.FavoritedBy)
	return p
}

type Category struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Slug      string    `json:"slug" bson:"slug"`
	Products  []string  `json:"products" bson:"products"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

func (c Category) EntityID() string { return c.ID }

func (c Category) Clone() Category {
	c.Products = cloneStrings(c.Products)
	return c
}

type User struct {
	ID        string    `json:"id" bson:"_id"`
	Email     string    `json:"email" bson:"email"`
	Role      Role      `json:"role" bson:"role"`
	IsBanned  bool      `json:"is_banned" bson:"is_banned"`
	Favorites []string  `json:"favorites" bson:"favorites"`
	Cart      Cart      `json:"cart" bson:"cart"`
	Orders    []string  `json:"orders" bson:"orders"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

func (u User) EntityID() string { return u.ID }

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u User) Clone() User {
	u.Favorites = cloneStrings(u.Favorites)
	u.Orders = cloneStrings(u.Orders)
	u.Cart = u.Cart.Clone()
	return u
}

// OrderItem is the immutable copy of a cart line kept on an order.
type OrderItem struct {
	ProductID   string  `json:"productId" bson:"productId"`
	ProductName string  `json:"productName" bson:"productName"`
	Quantity    int     `json:"quantity" bson:"quantity"`
	Price       float64 `json:"price" bson:"price"`
	Image       string  `json:"image" bson:"image"`
}

type Order struct {
	ID         string      `json:"id" bson:"_id"`
	UserID     string      `json:"user" bson:"user"`
	Items      []OrderItem `json:"orderItems" bson:"orderItems"`
	TotalPrice float64     `json:"totalPrice" bson:"totalPrice"`
	Status     OrderStatus `json:"status" bson:"status"`
	CreatedAt  time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt" bson:"updatedAt"`
}

func (o Order) EntityID() string { return o.ID }

func (o Order) Clone() Order {
	if o.Items != nil {
		items := make([]OrderItem, len(o.Items))
		copy(items, o.Items)
		o.Items = items
	}
	return o
}
