package controllers

import (
	"errors"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/services"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the binding tags used by request bodies:
// clock (HH:MM), endclock (HH:MM or 24:00), isodate (YYYY-MM-DD) and zone.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		for tag, fn := range map[string]validator.Func{
			"clock":    validClock,
			"endclock": validEndClock,
			"isodate":  validDate,
			"zone":     validZone,
		} {
			if err := v.RegisterValidation(tag, fn); err != nil {
				registerErr = err
				return
			}
		}
	})
	return registerErr
}

func validClock(fl validator.FieldLevel) bool {
	_, err := services.ParseClock(fl.Field().String())
	return err == nil
}

func validEndClock(fl validator.FieldLevel) bool {
	_, err := services.ParseEndClock(fl.Field().String())
	return err == nil
}

func validDate(fl validator.FieldLevel) bool {
	_, err := services.ParseDate(fl.Field().String())
	return err == nil
}

func validZone(fl validator.FieldLevel) bool {
	return models.IsValidZone(fl.Field().String())
}
