package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalJSON(t *testing.T) {
	_, c := newContext(t)

	for _, tc := range []struct {
		src  string
		want string
	}{
		{`({a: 1, b: [true, null, "x"]})`, `{"a":1,"b":[true,null,"x"]}`},
		{`"hi"`, `"hi"`},
		{`42`, `42`},
		{`undefined`, `null`},
		{`(function () {})`, `null`},
		{`({toJSON() { return {n: 2} }})`, `{"n":2}`},
	} {
		t.Run(tc.src, func(t *testing.T) {
			b, err := c.MarshalJSON(mustRun(t, c, tc.src))
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(b))
		})
	}
}

func TestMarshalJSON_Throws(t *testing.T) {
	_, c := newContext(t)
	_, err := c.MarshalJSON(mustRun(t, c, `var o = {}; o.self = o; o`))
	requireUncaught(t, err, "TypeError")

	_, err = c.MarshalJSON(mustRun(t, c, `({toJSON() { throw new Error("nope") }})`))
	requireUncaught(t, err, "nope")
}

func TestParseJSON(t *testing.T) {
	_, c := newContext(t)

	res := c.ParseJSON(`{"a": [1, 2, 3], "b": {"c": "d"}}`)
	require.NoError(t, res.Err)
	assert.True(t, res.Kinds.Has(KindObject))
	b := c.GetProperty(res.Value, "b")
	require.NoError(t, b.Err)
	cv := c.GetProperty(b.Value, "c")
	require.NoError(t, cv.Err)
	assert.Equal(t, "d", c.ToString(cv.Value))

	res = c.ParseJSON(`{"a": `)
	requireUncaught(t, res.Err, "SyntaxError")
	assert.Nil(t, res.Value)
}

func TestKeys(t *testing.T) {
	_, c := newContext(t)

	keys, err := c.Keys(mustRun(t, c, `
		var o = {z: 1, a: 2, 3: 0};
		Object.defineProperty(o, "hidden", {value: 1, enumerable: false});
		o[Symbol("s")] = 1;
		o`))
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "z", "a"}, keys)

	keys, err = c.Keys(mustRun(t, c, `({})`))
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = c.Keys(immediateNumber(t, c, 1))
	assert.ErrorIs(t, err, ErrNotObject)
}
