package models

// Form inputs. Attachment fields hold storage references ("./logo.png",
// "s3://brand/logo.png") that app/forms turns into multipart files.

type CategoryInput struct {
	Name        string `json:"name"        validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"nullable,max=500"`
	Status      *bool  `json:"status"`
	Image       string `json:"-"`
}

type ProductInput struct {
	Name          string   `json:"name"          validate:"required,min=2,max=200"`
	Description   string   `json:"description"   validate:"nullable,max=2000"`
	Price         float64  `json:"price"         validate:"gte=0"`
	StockQuantity int      `json:"stockQuantity" validate:"gte=0"`
	Category      string   `json:"category"      validate:"required"`
	Status        *bool    `json:"status"`
	Images        []string `json:"-"             validate:"nullable,max=10"`
}

type NewsInput struct {
	Title   string   `json:"title"   validate:"required,min=3,max=200"`
	Content string   `json:"content" validate:"required"`
	Excerpt string   `json:"excerpt" validate:"nullable,max=300"`
	Tags    []string `json:"tags"`
	Status  string   `json:"status"  validate:"nullable,in=draft,published,archived"`
	Image   string   `json:"-"`
}

type ReviewInput struct {
	Product string `json:"product" validate:"required"`
	Rating  int    `json:"rating"  validate:"required,between=1,5"`
	Content string `json:"content" validate:"required,min=3,max=1000"`
	Status  *bool  `json:"status"`
}

type RepairServiceInput struct {
	Name        string  `json:"name"        validate:"required,min=2,max=100"`
	Description string  `json:"description" validate:"nullable,max=500"`
	BasePrice   float64 `json:"basePrice"   validate:"gte=0"`
}

type DeviceInput struct {
	Brand  string `json:"brand"        validate:"required"`
	Model  string `json:"model"        validate:"required"`
	Name   string `json:"name"`
	Serial string `json:"serialNumber"`
}

type RepairRequestInput struct {
	Device          DeviceInput `json:"device"`
	Services        []string    `json:"services"        validate:"required,min=1"`
	EstimatedCost   float64     `json:"estimatedCost"   validate:"gte=0"`
	AppointmentDate string      `json:"appointmentDate" validate:"nullable,regex=^\\d{4}-\\d{2}-\\d{2}"`
	Note            string      `json:"note"            validate:"nullable,max=500"`
}

type AboutInput struct {
	StoreName   string            `json:"storeName"   validate:"required,min=2,max=100"`
	Story       string            `json:"story"       validate:"nullable,max=5000"`
	CoreValues  []string          `json:"coreValues"`
	SocialMedia map[string]string `json:"socialMedia"`
	Logo        string            `json:"-"`
}

type StaffInput struct {
	UserName string `json:"user_name" validate:"required,min=3,max=50"`
	Email    string `json:"email"     validate:"required,email"`
	Role     string `json:"role"      validate:"required,in=admin,staff,technician"`
	Password string `json:"password"  validate:"nullable,min=6"`
}

// StatusInput is the body of a status change.
type StatusInput struct {
	Status string `json:"status" validate:"required"`
}
