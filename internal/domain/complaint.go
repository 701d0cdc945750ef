package domain

import "time"

type Category string

const (
	CategoryPothole     Category = "Pothole"
	CategoryGarbage     Category = "Garbage"
	CategoryWaterLeak   Category = "WaterLeak"
	CategoryStreetlight Category = "Streetlight"
)

// Categories returns the fixed category set in policy order.
func Categories() []Category {
	return []Category{CategoryPothole, CategoryGarbage, CategoryWaterLeak, CategoryStreetlight}
}

type Department string

const (
	DepartmentRoadMaintenance Department = "RoadMaintenance"
	DepartmentSanitation      Department = "Sanitation"
	DepartmentWater           Department = "WaterDept"
	DepartmentElectricity     Department = "Electricity"
	DepartmentGeneral         Department = "General"
)

var departments = map[Category]Department{
	CategoryPothole:     DepartmentRoadMaintenance,
	CategoryGarbage:     DepartmentSanitation,
	CategoryWaterLeak:   DepartmentWater,
	CategoryStreetlight: DepartmentElectricity,
}

// DepartmentFor returns the department responsible for a category.
// Unknown categories are routed to DepartmentGeneral.
func DepartmentFor(c Category) Department {
	if d, ok := departments[c]; ok {
		return d
	}
	return DepartmentGeneral
}

type ComplaintStatus string

const (
	ComplaintStatusSubmitted ComplaintStatus = "Submitted"
	ComplaintStatusResolved  ComplaintStatus = "Resolved"
)

// CanTransition reports whether a complaint may move from one status to another.
// Resolved is terminal.
func CanTransition(from, to ComplaintStatus) bool {
	return from == ComplaintStatusSubmitted && to == ComplaintStatusResolved
}

// Complaint is a citizen report tracked through its resolution lifecycle.
type Complaint struct {
	ID               int64
	Description      string
	ImageBase64      string
	Location         Location
	Category         Category
	Department       Department
	Status           ComplaintStatus
	CreatedAt        time.Time
	Resolution       *Resolution
	UserID           int64
	EvidenceLocation string
}

// Resolution holds the fields written when a complaint is resolved.
// A complaint either has all of them or none.
type Resolution struct {
	ImageBase64      string
	ResolvedAt       time.Time
	EvidenceLocation string
}
