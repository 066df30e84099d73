package models

// Division is one tier of the competitive ladder. Order 1 is the top tier;
// higher order values sit lower on the ladder. MaxPoints is nil for the
// unbounded top tier.
type Division struct {
	ID                  int    `json:"id" db:"id"`
	Name                string `json:"name" db:"name"`
	MinPoints           int    `json:"min_points" db:"min_points"`
	MaxPoints           *int   `json:"max_points,omitempty" db:"max_points"`
	Color               string `json:"color" db:"color"`
	Order               int    `json:"order" db:"sort_order"`
	PromotionThreshold  int    `json:"promotion_threshold" db:"promotion_threshold"`
	RelegationThreshold int    `json:"relegation_threshold" db:"relegation_threshold"`
}

// ContainsPoints reports whether a point total falls inside this division's range.
func (d *Division) ContainsPoints(points int) bool {
	if points < d.MinPoints {
		return false
	}
	return d.MaxPoints == nil || points <= *d.MaxPoints
}
