package service

import (
	"github.com/rs/zerolog"
)

type Services struct {
	Seeder   *Seeder
	Reporter *Reporter
}

func NewServices(store Store, console *Console, logger *zerolog.Logger) *Services {
	return &Services{
		Seeder:   NewSeeder(store, logger),
		Reporter: NewReporter(store, console),
	}
}
