package extra

// Greeter is registered explicitly.
type Greeter struct{}

// Hello greets someone.
// @param string $name
// @return string
func (Greeter) Hello(name string) string { return "hello " + name }
