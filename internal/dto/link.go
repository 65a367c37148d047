package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"tinylink-go/constant"
	"tinylink-go/internal/apperrors"
	"tinylink-go/pkg/utils"
)

// 创建请求允许出现的字段
const (
	FieldURL             = "url"
	FieldExpirationHours = "expiration_hours"
)

// targetURLMessages 校验消息 ID 对应的默认英文消息
var targetURLMessages = map[string]string{
	"error.target_url_required":   "Target URL is required",
	"error.target_url_max_length": "Target URL is too long",
	"error.target_url_invalid":    "Target URL must be a valid absolute URL",
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator 返回共享的校验器（注册了 json 字段名与 target_url 规则）
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("target_url", func(fl validator.FieldLevel) bool {
			return utils.ValidateTargetURL(fl.Field().String()) == nil
		})
	})
	return validate
}

// CreateLinkRequest 创建短链的请求参数
type CreateLinkRequest struct {
	TargetURL       string `json:"url" validate:"required,target_url"`
	ExpirationHours *int   `json:"expiration_hours" validate:"omitempty,min=1,max=720"`
}

// ExpirationHoursOrDefault 未指定有效期时使用默认值
func (r *CreateLinkRequest) ExpirationHoursOrDefault() int {
	if r.ExpirationHours == nil {
		return constant.DefaultExpirationHours
	}
	return *r.ExpirationHours
}

// Validate 校验字段取值，返回全部错误
func (r *CreateLinkRequest) Validate() error {
	err := Validator().Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.SystemErrorDefault().WithCause(err)
	}

	list := make(apperrors.List, 0, len(verrs))
	for _, fe := range verrs {
		list = append(list, fieldError(fe))
	}
	return list
}

func fieldError(fe validator.FieldError) *apperrors.AppError {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return apperrors.RequiredField(field)
	case "target_url":
		messageID := "error.target_url_invalid"
		if s, ok := fe.Value().(string); ok {
			if err := utils.ValidateTargetURL(s); err != nil {
				messageID = err.Error()
			}
		}
		return apperrors.InvalidRequestError(messageID, targetURLMessages[messageID], field)
	case "min", "max":
		appErr := apperrors.InvalidRequestError("error.expiration_out_of_range",
			"Expiration hours must be between 1 and 720", field)
		appErr.TemplateData = map[string]any{
			"Min": constant.MinExpirationHours,
			"Max": constant.MaxExpirationHours,
		}
		return appErr
	default:
		return apperrors.InvalidRequestError("error.invalid_field", "Invalid field", field)
	}
}

// ParseCreateLinkRequest 严格解析创建请求：
// 请求体必须是 JSON 对象，多余字段和类型错误逐个报告
func ParseCreateLinkRequest(raw []byte) (CreateLinkRequest, error) {
	var req CreateLinkRequest

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		return req, apperrors.List{bodyNotObject()}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return req, apperrors.List{bodyNotObject()}
	}

	fields, ok := body.(map[string]any)
	if !ok {
		return req, apperrors.List{bodyNotObject()}
	}

	var list apperrors.List

	extra := make([]string, 0)
	for key := range fields {
		if key != FieldURL && key != FieldExpirationHours {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		list = append(list, apperrors.ExtraNotAllowed(key))
	}

	switch v := fields[FieldURL].(type) {
	case nil:
		list = append(list, apperrors.RequiredField(FieldURL))
	case string:
		req.TargetURL = v
	default:
		list = append(list, apperrors.TypeMismatch("string", FieldURL))
	}

	switch v := fields[FieldExpirationHours].(type) {
	case nil:
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			list = append(list, apperrors.TypeMismatch("integer", FieldExpirationHours))
			break
		}
		// 超出 int 范围的值按越界处理，交给 Validate 报告
		hours := int(constant.MaxExpirationHours + 1)
		if n >= -1<<31 && n < 1<<31 {
			hours = int(n)
		}
		req.ExpirationHours = &hours
	default:
		list = append(list, apperrors.TypeMismatch("integer", FieldExpirationHours))
	}

	if len(list) > 0 {
		return req, list
	}
	return req, nil
}

func bodyNotObject() *apperrors.AppError {
	return apperrors.InvalidRequestError("error.body_not_object", "Request body must be a JSON object", constant.LocationAll)
}

// CreatedLink 创建成功后返回给调用方的数据，secret 只在此处出现一次
type CreatedLink struct {
	Code   string `json:"code"`
	Secret string `json:"secret"`
}

// LinkInfo 短链详情；带 omitempty 的字段只在密钥正确时返回
type LinkInfo struct {
	Code         string `json:"code"`
	TargetURL    string `json:"target_url"`
	UniqueClicks int64  `json:"unique_clicks"`
	TotalClicks  int64  `json:"total_clicks"`

	CreatedAt       *time.Time   `json:"created_at,omitempty"`
	ExpirationHours *int         `json:"expiration_hours,omitempty"`
	ExpiresAt       *time.Time   `json:"expires_at,omitempty"`
	WeekHistory     *[]time.Time `json:"week_history,omitempty"`
}
