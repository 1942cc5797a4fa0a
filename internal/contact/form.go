package contact

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Form 联系表单请求体
type Form struct {
	FirstName      string  `json:"firstName" validate:"required,max=100"`
	LastName       string  `json:"lastName" validate:"required,max=100"`
	Email          string  `json:"email" validate:"required,email,max=255"`
	Phone          string  `json:"phone" validate:"required,max=50"`
	Company        *string `json:"company,omitempty" validate:"omitempty,max=255"`
	Details        string  `json:"details" validate:"required,max=5000"`
	RecaptchaToken *string `json:"recaptchaToken,omitempty"`
}

// DecodeForm 解析并校验请求体
// 非法JSON返回 ErrInvalidJSON，字段类型错误或校验失败返回 ErrInvalidFields
func DecodeForm(raw []byte) (*Form, error) {
	if !json.Valid(raw) {
		return nil, ErrInvalidJSON
	}

	var f Form
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, ErrInvalidFields
	}
	f.normalize()

	if err := validate.Struct(&f); err != nil {
		return nil, ErrInvalidFields
	}
	return &f, nil
}

func (f *Form) normalize() {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	if f.Company != nil {
		c := strings.TrimSpace(*f.Company)
		f.Company = &c
	}
}

// CompanyName 公司名，未填写时为空串
func (f *Form) CompanyName() string {
	if f.Company == nil {
		return ""
	}
	return *f.Company
}

// Token 人机验证token，未填写时为空串
func (f *Form) Token() string {
	if f.RecaptchaToken == nil {
		return ""
	}
	return *f.RecaptchaToken
}

// FormatEmailBody 生成纯文本邮件正文
func FormatEmailBody(f *Form) string {
	lines := []string{
		"Name: " + f.FirstName + " " + f.LastName,
		"Email: " + f.Email,
		"Phone: " + f.Phone,
	}
	if company := f.CompanyName(); company != "" {
		lines = append(lines, "Company: "+company)
	}
	lines = append(lines, "", "Message:", f.Details)
	return strings.Join(lines, "\n")
}
