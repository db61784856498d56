// Package filters applies the semantic corrections run over a fully ingested
// container before it is encoded.
package filters

import (
	"github.com/conduit-lang/metagen/internal/compiler/meta"
	"github.com/conduit-lang/metagen/internal/logger"
)

// CategoryRemoval drops a category from the interface it extends
type CategoryRemoval struct {
	Category  meta.FQName
	Interface meta.FQName
}

// ReturnTypeOverride replaces signature[0] of a static method of the named
// interface. Module is matched on its top-level component.
type ReturnTypeOverride struct {
	TopLevelModule string
	Interface      string
	Selector       string
	ReturnType     meta.Type
}

// Exceptions is the hand-maintained list of point fixes
type Exceptions struct {
	Categories  []CategoryRemoval
	ReturnTypes []ReturnTypeOverride
}

// DefaultExceptions returns the corrections needed by the iOS SDK
func DefaultExceptions() Exceptions {
	return Exceptions{
		Categories: []CategoryRemoval{{
			Category:  meta.FQName{Name: "UIResponderStandardEditActions", Module: "UIKit.UIResponder"},
			Interface: meta.FQName{Name: "NSObject", Module: "ObjectiveC.NSObject"},
		}},
		ReturnTypes: []ReturnTypeOverride{{
			TopLevelModule: "Foundation",
			Interface:      "NSNull",
			Selector:       "null",
			ReturnType:     meta.InstanceType(),
		}},
	}
}

// HandleExceptionalMetas applies the point fixes of ex to c
func HandleExceptionalMetas(c *meta.Container, ex Exceptions) {
	for _, rm := range ex.Categories {
		if c.RemoveCategory(rm.Category, rm.Interface) {
			logger.Debugw("removed category", "category", rm.Category.String(), "interface", rm.Interface.String())
		}
	}

	for _, o := range ex.ReturnTypes {
		m, ok := c.FindByName(meta.KindInterface, o.TopLevelModule, o.Interface)
		if !ok {
			continue
		}
		iface := m.(*meta.InterfaceMeta)
		for _, method := range iface.StaticMethods {
			if method.Selector != o.Selector || len(method.Signature) == 0 {
				continue
			}
			method.Signature[0] = o.ReturnType
			logger.Debugw("overrode return type", "interface", o.Interface, "selector", o.Selector)
		}
	}
}
