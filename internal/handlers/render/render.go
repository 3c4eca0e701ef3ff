package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	// Report on 'TagName' json tag instead of struct name
	// Look at documentation of 'RegisterTagNameFunc' for more details
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		// skip if tag key says it should be ignored
		if name == "-" {
			return ""
		}
		return name
	})
}

type Struct any

// Success envelope: statusCode mirrors the HTTP status
type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// Error envelope: no stack exposure, optional structured error list
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// Render success with status 200
func Success(w http.ResponseWriter, data any, message string) {
	jsonWithStatus(w, Response{StatusCode: http.StatusOK, Data: data, Message: message, Success: true}, http.StatusOK)
}

// Render success with status 201
func Created(w http.ResponseWriter, data any, message string) {
	jsonWithStatus(w, Response{StatusCode: http.StatusCreated, Data: data, Message: message, Success: true}, http.StatusCreated)
}

// Render error envelope with the given status
func Error(w http.ResponseWriter, code int, message string, errs ...string) {
	if errs == nil {
		errs = []string{}
	}

	response := ErrorResponse{
		StatusCode: code,
		Message:    message,
		Success:    false,
		Errors:     errs,
	}

	jsonWithStatus(w, response, code)
}

// Render json decoding error
func DecodeError(w http.ResponseWriter, err error) {
	message := ""

	// Try to provide more specific error message based on error type
	switch err := err.(type) {
	case *json.UnmarshalTypeError:
		message = fmt.Sprintf("Invalid data type for field '%s'", err.Field)
	default:
		message = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	Error(w, http.StatusBadRequest, message)
}

// Render validator errors as 400 with per field messages
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	fields := make([]string, 0, len(errs))

	// Create user-friendly error messages based on validation tag
	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "this field is required"
		case "required_without":
			message = fmt.Sprintf("this field is required when %s is not given", strings.ToLower(fieldError.Param()))
		case "email":
			message = "must be a valid email address"
		case "min":
			message = fmt.Sprintf("value is too short (minimum %s)", fieldError.Param())
		default:
			message = "invalid value"
		}

		fields = append(fields, fmt.Sprintf("%s: %s", fieldError.Field(), message))
	}

	Error(w, http.StatusBadRequest, "Request validation failed", fields...)
}

// ValidateStruct validates an already bound value using struct tags and
// writes the 400 response on failure
func ValidateStruct[T Struct](w http.ResponseWriter, value T) error {
	err := validate.Struct(value)
	if err != nil {
		// pretty sure cast will be ok cause expecting T is valid struct
		errs := err.(validator.ValidationErrors)
		ValidationErrors(w, errs)
		return err
	}

	return nil
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Returns the decoded value and writes appropriate error responses for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	return value, ValidateStruct(w, value)
}

// jsonWithStatus sends data as json and enforces status code
func jsonWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
