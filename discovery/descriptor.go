package discovery

// ParameterDescriptor describes one parameter of a method.
type ParameterDescriptor struct {
	Name string `json:"name"`
	// Type may be empty when no type could be determined.
	Type string `json:"type"`
}

// MethodDescriptor describes one callable method of a service.
type MethodDescriptor struct {
	Name string `json:"name"`

	// Parameters are in declaration order.
	Parameters []ParameterDescriptor `json:"parameters"`

	// Doc is the raw, unparsed doc comment.
	Doc string `json:"doc"`

	// ReturnType comes from the doc comment's return tag. Empty if unknown.
	ReturnType string `json:"returnType"`
}

// ServiceDescriptor describes a discoverable service.
type ServiceDescriptor struct {
	Name    string                      `json:"name"`
	Methods map[string]MethodDescriptor `json:"methods"`
	Doc     string                      `json:"doc"`
}

// Catalog maps service names to their descriptors.
type Catalog map[string]ServiceDescriptor

// MethodCount returns the total number of methods across all services.
func (c Catalog) MethodCount() int {
	n := 0
	for _, svc := range c {
		n += len(svc.Methods)
	}
	return n
}
