package validation

import (
	"strings"
	"testing"

	"github.com/actuallystonmai/users-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string) domain.UserInput {
	t.Helper()
	var in domain.UserInput
	require.NoError(t, Decode(strings.NewReader(body), &in))
	return in
}

func TestCreate(t *testing.T) {
	v := New()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"valid with city", `{"firstName":"Ann","secondName":"Lee","age":30,"city":"Oslo"}`, ""},
		{"valid without city", `{"firstName":"Ann","secondName":"Lee","age":30}`, ""},
		{"age zero", `{"firstName":"Ann","secondName":"Lee","age":0}`, ""},
		{"age upper bound", `{"firstName":"Ann","secondName":"Lee","age":150}`, ""},
		{"fractional age", `{"firstName":"Ann","secondName":"Lee","age":30.5}`, ""},
		{"missing firstName", `{"secondName":"Lee","age":30}`, `"firstName" is required`},
		{"missing secondName", `{"firstName":"Ann","age":30}`, `"secondName" is required`},
		{"missing age", `{"firstName":"Ann","secondName":"Lee"}`, `"age" is required`},
		{"empty firstName", `{"firstName":"","secondName":"Lee","age":30}`, `"firstName" is not allowed to be empty`},
		{"negative age", `{"firstName":"Ann","secondName":"Lee","age":-1}`, `"age" must be greater than or equal to 0`},
		{"age too high", `{"firstName":"Ann","secondName":"Lee","age":151}`, `"age" must be less than or equal to 150`},
		{"empty city", `{"firstName":"Ann","secondName":"Lee","age":30,"city":""}`, `"city" is not allowed to be empty`},
		{"first failure wins", `{"age":200}`, `"firstName" is required`},
		{"empty object", `{}`, `"firstName" is required`},
		{"empty body", ``, `"firstName" is required`},
		{"age as string", `{"firstName":"Ann","secondName":"Lee","age":"old"}`, `"age" must be a number`},
		{"name as number", `{"firstName":7,"secondName":"Lee","age":30}`, `"firstName" must be a string`},
		{"null age", `{"firstName":"Ann","secondName":"Lee","age":null}`, `"age" must be a number`},
		{"null city", `{"firstName":"Ann","secondName":"Lee","age":30,"city":null}`, `"city" must be a string`},
		{"unknown key", `{"firstName":"Ann","secondName":"Lee","age":30,"email":"a@b.c"}`, `"email" is not allowed`},
		{"unknown keys sorted", `{"firstName":"Ann","secondName":"Lee","age":30,"zip":1,"email":"x"}`, `"email" is not allowed`},
		{"type error after missing field", `{"age":"x"}`, `"firstName" is required`},
		{"unknown key after missing field", `{"email":"x"}`, `"firstName" is required`},
		{"type error before later rule", `{"firstName":"Ann","secondName":1,"age":500}`, `"secondName" must be a string`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Create(decode(t, tt.body))
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, domain.IsValidationError(err))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestCreateReturnsUser(t *testing.T) {
	u, err := New().Create(decode(t, `{"firstName":"Ann","secondName":"Lee","age":30.5}`))
	require.NoError(t, err)
	assert.Equal(t, domain.User{FirstName: "Ann", SecondName: "Lee", Age: 30.5}, u)
}

func TestUpdateRequiresCity(t *testing.T) {
	v := New()

	_, err := v.Update(decode(t, `{"firstName":"Ann","secondName":"Lee","age":30}`))
	require.Error(t, err)
	assert.Equal(t, `"city" is required`, err.Error())

	u, err := v.Update(decode(t, `{"firstName":"Ann","secondName":"Lee","age":30,"city":"Oslo"}`))
	require.NoError(t, err)
	assert.Equal(t, "Oslo", u.City)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"array body", `[1,2]`, `"value" must be of type object`},
		{"string body", `"hello"`, `"value" must be of type object`},
		{"null body", `null`, `"value" must be of type object`},
		{"malformed", `{"firstName":`, "invalid JSON body"},
		{"trailing garbage", `{"firstName":"A","secondName":"B","age":1}{"junk"`, "invalid JSON body"},
		{"second object", `{"firstName":"A","secondName":"B","age":1}{}`, "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in domain.UserInput
			err := Decode(strings.NewReader(tt.body), &in)
			require.Error(t, err)
			assert.True(t, domain.IsValidationError(err))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestDecodeAllowsTrailingWhitespace(t *testing.T) {
	in := decode(t, "{\"firstName\":\"A\",\"secondName\":\"B\",\"age\":1}\n  \n")
	_, err := New().Create(in)
	assert.NoError(t, err)
}
