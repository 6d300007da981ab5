package id

import "github.com/google/uuid"

// UUIDGenerator issues random UUID strings for order and stock item identifiers.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator { return &UUIDGenerator{} }

func (*UUIDGenerator) NewID() string { return uuid.NewString() }
