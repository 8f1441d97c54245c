package model

// Decorator enriches a catalog with renderer metadata after it has been loaded
// and validated.
type Decorator interface {
	Decorate(*Catalog) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*Catalog) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(catalog *Catalog) error {
	return fn(catalog)
}
