package reference

import (
	"context"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain"
	"github.com/google/uuid"
)

// Range is the persisted form of an Entry. Position keeps the source row
// order, which resolution depends on.
type Range struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Position   int      `gorm:"column:position;not null;uniqueIndex"`
	TestName   string   `gorm:"column:test_name;type:varchar(200);not null;index"`
	FromAge    int      `gorm:"column:from_age;not null"`
	ToAge      int      `gorm:"column:to_age;not null"`
	SexType    string   `gorm:"column:sex_type;type:varchar(10);not null"`
	LowValue   *float64 `gorm:"column:low_value"`
	UpperValue *float64 `gorm:"column:upper_value"`
}

func (Range) TableName() string {
	return "clinical.reference_ranges"
}

func NewRange(position int, e Entry) Range {
	return Range{
		Position:   position,
		TestName:   e.TestName,
		FromAge:    e.FromAge,
		ToAge:      e.ToAge,
		SexType:    string(e.Sex),
		LowValue:   boundPtr(e.Low),
		UpperValue: boundPtr(e.High),
	}
}

func (r Range) Entry() (Entry, error) {
	sex, ok := domain.ParseSex(r.SexType)
	if !ok {
		return Entry{}, fmt.Errorf("%w: got %q", ErrInvalidSex, r.SexType)
	}
	return Entry{
		TestName: r.TestName,
		FromAge:  r.FromAge,
		ToAge:    r.ToAge,
		Sex:      sex,
		Low:      boundValue(r.LowValue),
		High:     boundValue(r.UpperValue),
	}, nil
}

type Repository interface {
	// List returns every stored range ordered by Position.
	List(ctx context.Context) ([]Range, error)

	// ReplaceAll swaps the stored table for entries atomically.
	ReplaceAll(ctx context.Context, entries []Entry) error
}
