// Package models holds the client-side mirrors of the backend records.
//
// Records are owned by the backend; the client only caches them. Every
// record has a string Key used to splice it into lists.
package models

import "time"

// Entity is any record the slices can hold.
type Entity interface {
	Key() string
}

type Category struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	Status      Flag      `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (c Category) Key() string { return c.ID }

type Product struct {
	ID            string    `json:"_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Price         float64   `json:"price"`
	StockQuantity int       `json:"stockQuantity"`
	Category      Ref       `json:"category"`
	Images        []string  `json:"images,omitempty"`
	Status        Flag      `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (p Product) Key() string { return p.ID }

// CategoryName is the category label whether or not it was populated.
func (p Product) CategoryName() string { return p.Category.Label() }

type OrderDetail struct {
	ID       string  `json:"_id,omitempty"`
	Product  Ref     `json:"productId"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type Order struct {
	ID              string        `json:"_id"`
	OrderNumber     string        `json:"orderNumber"`
	User            Ref           `json:"userId"`
	OrderStatus     Ref           `json:"orderStatusId"`
	OrderDetails    []OrderDetail `json:"orderDetails"`
	TotalPrice      float64       `json:"totalPrice"`
	PaymentMethod   string        `json:"paymentMethod"`
	ReceiverName    string        `json:"receiverName"`
	ReceiverPhone   string        `json:"receiverPhone"`
	ReceiverAddress string        `json:"receiverAddress"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

func (o Order) Key() string { return o.ID }

// Status is the order status name, or its id when the status was not
// populated.
func (o Order) Status() string { return o.OrderStatus.Label() }

type News struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Image       string     `json:"image,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Status      string     `json:"status"` // draft | published | archived
	Author      Ref        `json:"author"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (n News) Key() string { return n.ID }

type Review struct {
	ID        string    `json:"_id"`
	Product   Ref       `json:"product"`
	User      Ref       `json:"user"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
	Status    Flag      `json:"status"` // visible / hidden
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r Review) Key() string { return r.ID }

type RepairService struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	BasePrice   float64 `json:"basePrice"`
}

func (s RepairService) Key() string { return s.ID }

type Device struct {
	Brand  string `json:"brand"`
	Model  string `json:"model"`
	Name   string `json:"name,omitempty"`
	Serial string `json:"serialNumber,omitempty"`
}

type RepairRequest struct {
	ID                 string     `json:"_id"`
	User               Ref        `json:"user"`
	Device             Device     `json:"device"`
	Services           []Ref      `json:"services"`
	AssignedTechnician Ref        `json:"assignedTechnician"`
	Status             string     `json:"status"` // waiting | in-progress | completed | canceled
	EstimatedCost      float64    `json:"estimatedCost"`
	AppointmentDate    *time.Time `json:"appointmentDate,omitempty"`
	Note               string     `json:"note,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

func (r RepairRequest) Key() string { return r.ID }

// AboutUs is the store's singleton "about us" document.
type AboutUs struct {
	ID          string             `json:"_id"`
	StoreName   string             `json:"storeName"`
	Logo        string             `json:"logo,omitempty"`
	Story       string             `json:"story,omitempty"`
	CoreValues  []string           `json:"coreValues,omitempty"`
	SocialMedia map[string]string  `json:"socialMedia,omitempty"`
	Stats       map[string]float64 `json:"stats,omitempty"`
	Status      Flag               `json:"status"`
}

func (a AboutUs) Key() string { return a.ID }

type Staff struct {
	ID       string `json:"_id"`
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Status   string `json:"status"` // active | inactive
}

func (s Staff) Key() string { return s.ID }

// Statistics is the dashboard summary.
type Statistics struct {
	TotalRevenue   float64        `json:"totalRevenue"`
	TotalOrders    int            `json:"totalOrders"`
	TotalProducts  int            `json:"totalProducts"`
	TotalUsers     int            `json:"totalUsers"`
	OrdersByStatus map[string]int `json:"ordersByStatus,omitempty"`
	RevenueByMonth []MonthRevenue `json:"revenueByMonth,omitempty"`
}

type MonthRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}
