package patient

// Update is a partial patient. Nil fields were not sent and leave the
// stored value untouched.
//
// Only the gender literal is checked here. Numeric bounds are enforced
// when the merged Patient is validated.
type Update struct {
	Name   *string  `json:"name"`
	City   *string  `json:"city"`
	Age    *int     `json:"age"`
	Gender *string  `json:"gender" validate:"omitempty,oneof=male female others"`
	Height *float64 `json:"height"`
	Weight *float64 `json:"weight"`
}

// Validate checks the struct tags of the set fields.
func (u *Update) Validate() error {
	return validate.Struct(u)
}

// IsEmpty reports whether no field was set.
func (u *Update) IsEmpty() bool {
	return u.Name == nil && u.City == nil && u.Age == nil &&
		u.Gender == nil && u.Height == nil && u.Weight == nil
}

// ApplyTo returns a copy of p with every set field overwritten.
func (u *Update) ApplyTo(p Patient) Patient {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.City != nil {
		p.City = *u.City
	}
	if u.Age != nil {
		p.Age = *u.Age
	}
	if u.Gender != nil {
		p.Gender = *u.Gender
	}
	if u.Height != nil {
		p.Height = *u.Height
	}
	if u.Weight != nil {
		p.Weight = *u.Weight
	}
	return p
}
