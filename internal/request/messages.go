package request

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/text/language"
)

// Messages holds the user-facing texts for transport and HTTP failures.
type Messages struct {
	NetworkError        string
	RequestTimeout      string
	BadRequest          string
	Unauthorized        string
	Forbidden           string
	NotFound            string
	InternalServerError string
}

var (
	englishMessages = Messages{
		NetworkError:        "Network exception, please check your network and try again",
		RequestTimeout:      "Request timed out, please try again later",
		BadRequest:          "Request error. Please check your input and try again",
		Unauthorized:        "Login expired, please login again",
		Forbidden:           "Forbidden, you do not have permission to access this resource",
		NotFound:            "The requested resource does not exist",
		InternalServerError: "Internal server error, please try again later",
	}
	chineseMessages = Messages{
		NetworkError:        "网络异常，请检查您的网络连接后重试。",
		RequestTimeout:      "请求超时，请稍后再试。",
		BadRequest:          "请求错误。请检查您的输入并重试。",
		Unauthorized:        "登录认证过期，请重新登录后继续。",
		Forbidden:           "禁止访问, 您没有权限访问此资源。",
		NotFound:            "未找到, 请求的资源不存在。",
		InternalServerError: "内部服务器错误，请稍后再试。",
	}

	supportedLocales = []language.Tag{language.AmericanEnglish, language.SimplifiedChinese}
	localeMatcher    = language.NewMatcher(supportedLocales)
)

// SupportedLocales lists the locales that have a message catalog.
func SupportedLocales() []language.Tag {
	return append([]language.Tag(nil), supportedLocales...)
}

// MatchLocale maps a preference such as "zh-CN", "zh_CN" or "en" onto the
// closest supported locale.
func MatchLocale(pref string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(pref)
	if err != nil || len(tags) == 0 {
		if t, err := language.Parse(pref); err == nil {
			tags = []language.Tag{t}
		}
	}
	_, idx, _ := localeMatcher.Match(tags...)
	return supportedLocales[idx]
}

// MessagesFor returns the catalog for the locale closest to pref.
func MessagesFor(pref string) Messages {
	base, _ := MatchLocale(pref).Base()
	if zh, _ := language.Chinese.Base(); base == zh {
		return chineseMessages
	}
	return englishMessages
}

// MakeErrorMessageFunc receives the mapped message and the failure.
type MakeErrorMessageFunc func(msg string, err error)

// ErrorMessageInterceptor maps failures to messages and hands them to
// makeErrorMessage. The error itself is always propagated.
func ErrorMessageInterceptor(msgs Messages, makeErrorMessage MakeErrorMessageFunc) ResponseInterceptor {
	return ResponseInterceptor{
		Rejected: func(_ context.Context, err error) (*Response, error) {
			if IsCanceled(err) {
				return nil, err
			}
			if msg := MessageFor(msgs, err); msg != "" && makeErrorMessage != nil {
				makeErrorMessage(msg, err)
			}
			return nil, err
		},
	}
}

// MessageFor returns the mapped message for err.
func MessageFor(msgs Messages, err error) string {
	var ne *NetworkError
	if errors.As(err, &ne) {
		if ne.Timeout {
			return msgs.RequestTimeout
		}
		return msgs.NetworkError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return msgs.RequestTimeout
	}

	switch StatusCode(err) {
	case http.StatusBadRequest:
		return msgs.BadRequest
	case http.StatusUnauthorized:
		return msgs.Unauthorized
	case http.StatusForbidden:
		return msgs.Forbidden
	case http.StatusNotFound:
		return msgs.NotFound
	case http.StatusRequestTimeout:
		return msgs.RequestTimeout
	default:
		return msgs.InternalServerError
	}
}

// ServerMessage pulls the server-supplied explanation out of a failed
// response body, preferring "error" over "message".
func ServerMessage(err error) string {
	resp := ResponseOf(err)
	if resp == nil {
		return ""
	}
	body, decodeErr := resp.Decoded()
	if decodeErr != nil || body == nil {
		return ""
	}
	if s, ok := body["error"].(string); ok && s != "" {
		return s
	}
	if s, ok := body["message"].(string); ok && s != "" {
		return s
	}
	return ""
}
