package vars

import (
	"testing"

	"github.com/slickfs/gateway/config/value"

	"github.com/stretchr/testify/require"
)

func TestVars(t *testing.T) {
	v1 := Variables{}

	s := ""

	v1.Register(value.NewString(&s, "foobar"), "string", "", "a string", false, false)

	require.Equal(t, "foobar", s)
	x, _ := v1.Get("string")
	require.Equal(t, "foobar", x)

	v := v1.findVariable("string")
	v.value.Set("barfoo")

	require.Equal(t, "barfoo", s)
	x, _ = v1.Get("string")
	require.Equal(t, "barfoo", x)

	require.NoError(t, v1.Set("string", "foobaz"))

	require.Equal(t, "foobaz", s)

	v1.SetDefault("string")

	require.Equal(t, "foobar", s)

	_, err := v1.Get("unknown")
	require.Error(t, err)
	require.Error(t, v1.Set("unknown", "x"))
}

func TestMerge(t *testing.T) {
	s := ""
	n := 0

	v1 := Variables{}
	v1.Register(value.NewString(&s, "foobar"), "string", "SLICK_TEST_STRING", "a string", false, false)
	v1.Register(value.NewInt(&n, 1, 1), "int", "SLICK_TEST_INT", "an int", false, false)

	t.Setenv("SLICK_TEST_STRING", "barfoo")
	t.Setenv("SLICK_TEST_INT", "two")

	v1.Merge()

	require.Equal(t, "barfoo", s)
	require.True(t, v1.IsMerged("string"))
	require.False(t, v1.IsMerged("int"))
	require.Equal(t, []string{"string"}, v1.Overrides())
	require.True(t, v1.HasErrors())

	v2 := Variables{}
	v2.Register(value.NewString(&s, "foobar"), "string", "SLICK_TEST_STRING", "a string", false, false)
	v2.Transfer(&v1)

	require.True(t, v2.IsMerged("string"))
}

func TestValidate(t *testing.T) {
	s := ""
	password := "secret"

	v1 := Variables{}
	v1.Register(value.NewString(&s, ""), "string", "", "a string", true, false)
	v1.Register(value.NewString(&password, "secret"), "password", "", "a password", false, true)

	v1.Validate()

	require.True(t, v1.HasErrors())

	errors := []string{}
	values := map[string]string{}

	v1.Messages(func(level string, v Variable, message string) {
		values[v.Name] = v.Value

		if level == "error" {
			errors = append(errors, v.Name+": "+message)
		}
	})

	require.Equal(t, []string{"string: a value is required"}, errors)
	require.Equal(t, "***", values["password"])

	v1.ResetLogs()
	require.False(t, v1.HasErrors())

	names := []string{}
	v1.Each(func(v Variable) {
		names = append(names, v.Name)
	})
	require.Equal(t, []string{"string", "password"}, names)
}
