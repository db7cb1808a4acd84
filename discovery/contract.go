package discovery

// Service is the contract every discoverable service satisfies. It replaces
// reflection over live objects: a service reports its own methods.
//
// Services described in code can use Static. Services defined in Go source
// can be loaded with the source package.
type Service interface {
	// Doc returns the raw doc comment of the service.
	Doc() string

	// Methods returns the publicly callable methods in declaration order.
	Methods() []Method
}

// Method is the self-reported shape of one service method.
type Method struct {
	Name   string
	Params []Param
	// Doc is the raw doc comment. Type hints in it fill in parameters
	// without a declared Type.
	Doc string
}

// Param is one method parameter.
type Param struct {
	Name string
	// Type is the declared structural type, or "" when the parameter has
	// none.
	Type string
}

// Static is a Service described by values.
//
//	svc := discovery.Static{
//	    Description: "// Echo repeats its input.",
//	    Contract: []discovery.Method{{
//	        Name:   "Say",
//	        Params: []discovery.Param{{Name: "text"}},
//	        Doc:    "// @param string $text\n// @return string",
//	    }},
//	}
type Static struct {
	Description string
	Contract    []Method
}

// Doc implements Service.
func (s Static) Doc() string { return s.Description }

// Methods implements Service.
func (s Static) Methods() []Method { return s.Contract }
