package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 业务错误码，HTTP 状态统一为 200
const (
	CodeSuccess          = 0
	CodeParamError       = 1000
	CodeAuthFailed       = 1001
	CodePermissionDenied = 1002
	CodeResourceNotFound = 1003
	CodeStateConflict    = 1004 // 账单已作废等状态不允许的修改
	CodeDuplicateAction  = 1005 // 同月份已有账单操作在进行
	CodeServerError      = 5000
)

var codeMessages = map[int]string{
	CodeSuccess:          "success",
	CodeParamError:       "参数错误",
	CodeAuthFailed:       "认证失败",
	CodePermissionDenied: "权限不足",
	CodeResourceNotFound: "资源不存在",
	CodeStateConflict:    "状态冲突",
	CodeDuplicateAction:  "操作进行中，请稍后重试",
	CodeServerError:      "服务器内部错误",
}

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func Success(c *gin.Context, data interface{}) {
	SuccessWithMessage(c, "", data)
}

// SuccessWithMessage 业务结果摘要放在 message，例如生成数量
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	if message == "" {
		message = codeMessages[CodeSuccess]
	}
	c.JSON(http.StatusOK, Response{Code: CodeSuccess, Message: message, Data: data})
}

// Error message 为空时使用错误码的默认消息
func Error(c *gin.Context, code int, message string) {
	if message == "" {
		message = codeMessages[code]
	}
	c.JSON(http.StatusOK, Response{Code: code, Message: message})
}

func ParamError(c *gin.Context, message string)      { Error(c, CodeParamError, message) }
func AuthError(c *gin.Context, message string)       { Error(c, CodeAuthFailed, message) }
func PermissionError(c *gin.Context, message string) { Error(c, CodePermissionDenied, message) }
func NotFoundError(c *gin.Context, message string)   { Error(c, CodeResourceNotFound, message) }
func ConflictError(c *gin.Context, message string)   { Error(c, CodeStateConflict, message) }
func DuplicateError(c *gin.Context, message string)  { Error(c, CodeDuplicateAction, message) }
func ServerError(c *gin.Context, message string)     { Error(c, CodeServerError, message) }
