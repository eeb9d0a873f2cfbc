package jsbridge

import (
	"github.com/joeycumines/jsbridge/internal/bridge"
)

// Kind is one of the classifications a value can have. A value usually has
// several; an array is both KindArray and KindObject.
type Kind = bridge.Kind

// KindMask is a set of Kinds.
type KindMask = bridge.KindMask

const (
	KindUndefined                 = bridge.KindUndefined
	KindNull                      = bridge.KindNull
	KindName                      = bridge.KindName
	KindString                    = bridge.KindString
	KindSymbol                    = bridge.KindSymbol
	KindFunction                  = bridge.KindFunction
	KindArray                     = bridge.KindArray
	KindObject                    = bridge.KindObject
	KindBoolean                   = bridge.KindBoolean
	KindNumber                    = bridge.KindNumber
	KindExternal                  = bridge.KindExternal
	KindInt32                     = bridge.KindInt32
	KindUint32                    = bridge.KindUint32
	KindDate                      = bridge.KindDate
	KindArgumentsObject           = bridge.KindArgumentsObject
	KindBooleanObject             = bridge.KindBooleanObject
	KindNumberObject              = bridge.KindNumberObject
	KindStringObject              = bridge.KindStringObject
	KindSymbolObject              = bridge.KindSymbolObject
	KindNativeError               = bridge.KindNativeError
	KindRegExp                    = bridge.KindRegExp
	KindAsyncFunction             = bridge.KindAsyncFunction
	KindGeneratorFunction         = bridge.KindGeneratorFunction
	KindGeneratorObject           = bridge.KindGeneratorObject
	KindPromise                   = bridge.KindPromise
	KindMap                       = bridge.KindMap
	KindSet                       = bridge.KindSet
	KindMapIterator               = bridge.KindMapIterator
	KindSetIterator               = bridge.KindSetIterator
	KindWeakMap                   = bridge.KindWeakMap
	KindWeakSet                   = bridge.KindWeakSet
	KindArrayBuffer               = bridge.KindArrayBuffer
	KindArrayBufferView           = bridge.KindArrayBufferView
	KindTypedArray                = bridge.KindTypedArray
	KindUint8Array                = bridge.KindUint8Array
	KindUint8ClampedArray         = bridge.KindUint8ClampedArray
	KindInt8Array                 = bridge.KindInt8Array
	KindUint16Array               = bridge.KindUint16Array
	KindInt16Array                = bridge.KindInt16Array
	KindUint32Array               = bridge.KindUint32Array
	KindInt32Array                = bridge.KindInt32Array
	KindFloat32Array              = bridge.KindFloat32Array
	KindFloat64Array              = bridge.KindFloat64Array
	KindDataView                  = bridge.KindDataView
	KindSharedArrayBuffer         = bridge.KindSharedArrayBuffer
	KindProxy                     = bridge.KindProxy
	KindWebAssemblyCompiledModule = bridge.KindWebAssemblyCompiledModule
)
