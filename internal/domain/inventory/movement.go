package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
)

// MovementType represents the kind of stock movement
type MovementType string

const (
	// MovementTypePurchase brings stock into a location from a supplier
	MovementTypePurchase MovementType = "purchase"
	// MovementTypeUsage consumes stock in production
	MovementTypeUsage MovementType = "usage"
	// MovementTypeTransfer moves stock between two locations
	MovementTypeTransfer MovementType = "transfer"
	// MovementTypeWriteOff removes spoiled or lost stock
	MovementTypeWriteOff MovementType = "write_off"
	// MovementTypeReturn sends purchased stock back to the supplier
	MovementTypeReturn MovementType = "return"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypePurchase,
		MovementTypeUsage,
		MovementTypeTransfer,
		MovementTypeWriteOff,
		MovementTypeReturn:
		return true
	}
	return false
}

// IsConsumption returns true for movements that expense stock at the current average
func (t MovementType) IsConsumption() bool {
	return t == MovementTypeUsage || t == MovementTypeWriteOff
}

// Source types tag the record that caused a movement
const (
	SourceTypeManual   = "manual"
	SourceTypeOrder    = "order"
	SourceTypeExpense  = "expense"
	SourceTypeMovement = "movement"
)

// Movement is an append-only stock movement record.
// Purchases carry only ToLocationID; usage, write-offs and returns carry only
// FromLocationID; transfers carry both.
type Movement struct {
	shared.BaseEntity
	IngredientID   uuid.UUID    `gorm:"type:uuid;not null;index"`
	FromLocationID *uuid.UUID   `gorm:"type:uuid;index"`
	ToLocationID   *uuid.UUID   `gorm:"type:uuid;index"`
	Quantity       int64        `gorm:"not null"`
	MovementType   MovementType `gorm:"type:varchar(20);not null;index"`
	UnitCostCents  int64        `gorm:"not null;default:0"`
	TotalCostCents int64        `gorm:"not null;default:0"`
	SourceType     string       `gorm:"type:varchar(50);index:idx_movement_source,priority:1"`
	SourceID       string       `gorm:"type:varchar(100);index:idx_movement_source,priority:2"`
	MovementDate   time.Time    `gorm:"not null;index"`
	Notes          string       `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Movement) TableName() string {
	return "inventory_movements"
}

// NewMovement creates a new movement after checking that the locations
// match the movement type
func NewMovement(
	ingredientID uuid.UUID,
	from, to *uuid.UUID,
	movementType MovementType,
	quantity int64,
	movementDate time.Time,
) (*Movement, error) {
	if ingredientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INGREDIENT", "Ingredient ID cannot be empty")
	}
	if !movementType.IsValid() {
		return nil, shared.Newf("INVALID_MOVEMENT_TYPE", "Unknown movement type %q", movementType)
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if from == nil && to == nil {
		return nil, shared.ErrUnknownDirection
	}

	switch movementType {
	case MovementTypePurchase:
		if to == nil || from != nil {
			return nil, shared.NewDomainError("INVALID_LOCATION", "Purchase requires only a destination location")
		}
	case MovementTypeUsage, MovementTypeWriteOff, MovementTypeReturn:
		if from == nil || to != nil {
			return nil, shared.Newf("INVALID_LOCATION", "%s requires only a source location", movementType)
		}
	case MovementTypeTransfer:
		if from == nil || to == nil {
			return nil, shared.NewDomainError("INVALID_LOCATION", "Transfer requires both locations")
		}
		if *from == *to {
			return nil, shared.NewDomainError("INVALID_LOCATION", "Transfer source and destination must differ")
		}
	}

	if movementDate.IsZero() {
		movementDate = time.Now()
	}

	return &Movement{
		BaseEntity:     shared.NewBaseEntity(),
		IngredientID:   ingredientID,
		FromLocationID: from,
		ToLocationID:   to,
		Quantity:       quantity,
		MovementType:   movementType,
		SourceType:     SourceTypeManual,
		MovementDate:   shared.DateOnly(movementDate),
	}, nil
}

// WithCost sets the unit and total cost
func (m *Movement) WithCost(unitCents, totalCents int64) *Movement {
	m.UnitCostCents = unitCents
	m.TotalCostCents = totalCents
	return m
}

// WithSource tags the movement with its originating record
func (m *Movement) WithSource(sourceType, sourceID string) *Movement {
	m.SourceType = sourceType
	m.SourceID = sourceID
	return m
}

// WithNotes sets free-form notes
func (m *Movement) WithNotes(notes string) *Movement {
	m.Notes = notes
	return m
}

// SignedQuantityAt returns the quantity effect of this movement on a location:
// positive where it lands, negative where it leaves
func (m *Movement) SignedQuantityAt(locationID uuid.UUID) int64 {
	var q int64
	if m.ToLocationID != nil && *m.ToLocationID == locationID {
		q += m.Quantity
	}
	if m.FromLocationID != nil && *m.FromLocationID == locationID {
		q -= m.Quantity
	}
	return q
}

// Touches returns every location the movement affects
func (m *Movement) Touches() []uuid.UUID {
	locs := make([]uuid.UUID, 0, 2)
	if m.FromLocationID != nil {
		locs = append(locs, *m.FromLocationID)
	}
	if m.ToLocationID != nil {
		locs = append(locs, *m.ToLocationID)
	}
	return locs
}

// LedgerReference is the journal entry reference linking an entry to this movement
func (m *Movement) LedgerReference() string {
	return MovementReference(m.ID)
}

// IsOrderConsumption reports whether the movement was created by an order
// moving into preparation
func (m *Movement) IsOrderConsumption() bool {
	return m.MovementType == MovementTypeUsage && m.SourceType == SourceTypeOrder
}

// MovementReference formats the journal reference for a movement ID
func MovementReference(id uuid.UUID) string {
	return fmt.Sprintf("Movement %s", id)
}

// DuplicateKey identifies movements that describe the same physical event
func (m *Movement) DuplicateKey() string {
	return fmt.Sprintf("%s|%s|%s|%s|%d|%s|%s|%s",
		m.IngredientID,
		uuidOrDash(m.FromLocationID),
		uuidOrDash(m.ToLocationID),
		m.MovementType,
		m.Quantity,
		m.MovementDate.Format("2006-01-02"),
		m.SourceType,
		m.SourceID,
	)
}

func uuidOrDash(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()
}
