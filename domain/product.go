package domain

type Product struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Price       float64 `json:"price" db:"price"`
	Description string  `json:"description" db:"description"`
	Image       string  `json:"image" db:"image"`
	CreatedAt   string  `json:"created_at" db:"created_at"`
}
