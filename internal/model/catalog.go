package model

// Size is a selectable size label such as "42" or "XL".
type Size struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Label string `gorm:"type:varchar(20);uniqueIndex;not null" json:"label"`
}

type Brand struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
}

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
}

type ProductType struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
}

// DefaultSizes seeds the size table on first start.
var DefaultSizes = []Size{
	{Label: "36"}, {Label: "37"}, {Label: "38"}, {Label: "39"}, {Label: "40"},
	{Label: "41"}, {Label: "42"}, {Label: "43"}, {Label: "44"}, {Label: "45"},
}
