package discovery

import (
	"strings"

	"github.com/broady/gateway/internal/doccomment"
)

// ReservedPrefix marks internal methods. They are never discoverable.
const ReservedPrefix = "_"

// Introspect describes the public methods of svc.
//
// Each parameter's type is its declared Type if set, otherwise the type
// hinted for a parameter of the same name in the method's doc comment,
// otherwise "".
func Introspect(svc Service) []MethodDescriptor {
	var out []MethodDescriptor
	for _, m := range svc.Methods() {
		if strings.HasPrefix(m.Name, ReservedPrefix) {
			continue
		}

		hints := doccomment.Parse(m.Doc)
		params := make([]ParameterDescriptor, 0, len(m.Params))
		for _, p := range m.Params {
			typ := p.Type
			if typ == "" {
				typ = hints.Params[p.Name]
			}
			params = append(params, ParameterDescriptor{Name: p.Name, Type: typ})
		}

		out = append(out, MethodDescriptor{
			Name:       m.Name,
			Parameters: params,
			Doc:        m.Doc,
			ReturnType: hints.Return,
		})
	}
	return out
}

// describe assembles the descriptor for a resolved service.
func describe(name string, svc Service) ServiceDescriptor {
	methods := make(map[string]MethodDescriptor)
	for _, m := range Introspect(svc) {
		methods[m.Name] = m
	}
	return ServiceDescriptor{
		Name:    name,
		Methods: methods,
		Doc:     svc.Doc(),
	}
}
