// Package stages provides one built-in transformer per registered
// configuration kind. Each stage is written against a different layer of
// the transformer hierarchy, so the package doubles as a usage reference
// for stage authors.
package stages

import (
	"github.com/batchline/batchline"
)

// Factories returns the stage factory table for every kind this package
// implements. The returned map is freshly allocated; the caller may extend
// it before handing it to the engine.
func Factories() map[batchline.Kind]batchline.StageFactory {
	return map[batchline.Kind]batchline.StageFactory{
		batchline.KindJSON:  func() batchline.Transformer { return NewJSON() },
		batchline.KindCSV:   func() batchline.Transformer { return NewCSV() },
		batchline.KindUser:  func() batchline.Transformer { return NewUser() },
		batchline.KindLua:   func() batchline.Transformer { return NewLua() },
		batchline.KindDedup: func() batchline.Transformer { return NewDedup() },
	}
}
