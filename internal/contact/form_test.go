package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeForm(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"valid", `{"firstName":"Jane","lastName":"Doe","email":"jane@example.com","phone":"555","details":"hi"}`, nil},
		{"valid with optional fields", `{"firstName":"Jane","lastName":"Doe","email":"jane@example.com","phone":"555","details":"hi","company":"Acme","recaptchaToken":"tok"}`, nil},
		{"broken json", `{"firstName":`, ErrInvalidJSON},
		{"empty body", ``, ErrInvalidJSON},
		{"null body", `null`, ErrInvalidFields},
		{"array body", `[1,2]`, ErrInvalidFields},
		{"wrong type", `{"firstName":5,"lastName":"Doe","email":"jane@example.com","phone":"555","details":"hi"}`, ErrInvalidFields},
		{"missing details", `{"firstName":"Jane","lastName":"Doe","email":"jane@example.com","phone":"555"}`, ErrInvalidFields},
		{"blank name", `{"firstName":"  ","lastName":"Doe","email":"jane@example.com","phone":"555","details":"hi"}`, ErrInvalidFields},
		{"bad email", `{"firstName":"Jane","lastName":"Doe","email":"not-an-email","phone":"555","details":"hi"}`, ErrInvalidFields},
		{"company wrong type", `{"firstName":"Jane","lastName":"Doe","email":"jane@example.com","phone":"555","details":"hi","company":1}`, ErrInvalidFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := DecodeForm([]byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, f)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Jane", f.FirstName)
		})
	}
}

func TestFormatEmailBody(t *testing.T) {
	f, err := DecodeForm([]byte(`{"firstName":"Jane","lastName":"Doe","email":"jane@example.com","phone":"555-0100","details":"Line one\nLine two"}`))
	require.NoError(t, err)

	assert.Equal(t, "Name: Jane Doe\nEmail: jane@example.com\nPhone: 555-0100\n\nMessage:\nLine one\nLine two", FormatEmailBody(f))

	company := "Acme Racing"
	f.Company = &company
	assert.Equal(t, "Name: Jane Doe\nEmail: jane@example.com\nPhone: 555-0100\nCompany: Acme Racing\n\nMessage:\nLine one\nLine two", FormatEmailBody(f))

	// 空公司名不输出
	empty := ""
	f.Company = &empty
	assert.NotContains(t, FormatEmailBody(f), "Company:")
}
