package uuid

import (
	"testing"

	"github.com/dop251/goja"
	googleuuid "github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModule(t *testing.T) {
	t.Parallel()
	runtime := goja.New()
	module := runtime.NewObject()
	_ = module.Set("exports", runtime.NewObject())
	Require(runtime, module)
	_ = runtime.Set("uuid", module.Get("exports"))

	v, err := runtime.RunString(`uuid.v4()`)
	require.NoError(t, err)
	id, err := googleuuid.Parse(v.String())
	require.NoError(t, err)
	assert.Equal(t, googleuuid.Version(4), id.Version())

	v, err = runtime.RunString(`uuid.v7()`)
	require.NoError(t, err)
	id, err = googleuuid.Parse(v.String())
	require.NoError(t, err)
	assert.Equal(t, googleuuid.Version(7), id.Version())

	v, err = runtime.RunString(`[uuid.validate(uuid.v4()), uuid.validate("nope"), uuid.validate(), uuid.nil].join(",")`)
	require.NoError(t, err)
	assert.Equal(t, "true,false,false,00000000-0000-0000-0000-000000000000", v.String())
}
