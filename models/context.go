package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/mux"

	e "github.com/microcosm-cc/gamecatalog/errors"
)

// RequestIDHeader carries the per-request id set by the logging middleware
const RequestIDHeader = "X-Request-Id"

// Context wraps one request and its response writer
type Context struct {
	Request        *http.Request
	ResponseWriter http.ResponseWriter
	RouteVars      map[string]string
	StartTime      time.Time
	IP             net.IP
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Status    int       `json:"status"`
	Errors    []string  `json:"error"`
	ErrorCode e.ErrCode `json:"errorCode,omitempty"`
}

// MakeContext builds the Context for a request routed by gorilla/mux
func MakeContext(
	request *http.Request,
	responseWriter http.ResponseWriter,
) *Context {
	return &Context{
		Request:        request,
		ResponseWriter: responseWriter,
		RouteVars:      mux.Vars(request),
		StartTime:      time.Now(),
		IP:             GetRequestIP(request),
	}
}

// GetRequestIP returns the remote address without the port
func GetRequestIP(request *http.Request) net.IP {
	host, _, _ := net.SplitHostPort(request.RemoteAddr)
	return net.ParseIP(host)
}

// RequestID returns the id the middleware assigned to this request
func (c *Context) RequestID() string {
	return c.ResponseWriter.Header().Get(RequestIDHeader)
}

// GetHTTPMethod returns the request method, honouring X-HTTP-Method-Override
// and ?method= on POST for clients that cannot send PUT or DELETE
func (c *Context) GetHTTPMethod() string {
	m := c.Request.Method

	if m == http.MethodPost {
		if c.Request.Header.Get("X-HTTP-Method-Override") != "" {
			m = strings.ToUpper(c.Request.Header.Get("X-HTTP-Method-Override"))
		}
		if c.Request.URL.Query().Get("method") != "" {
			m = strings.ToUpper(c.Request.URL.Query().Get("method"))
		}

		switch m {
		case http.MethodDelete:
		case http.MethodGet:
		case http.MethodHead:
		case http.MethodOptions:
		case http.MethodPatch:
		case http.MethodPost:
		case http.MethodPut:
		default:
			// If it wasn't one of the above then let's just use what we know
			// is safe
			return c.Request.Method
		}
	}

	return m
}

// GetInt64RouteVar parses a numeric path segment. Anything else is invalid
// input.
func (c *Context) GetInt64RouteVar(key string) (int64, error) {
	raw, ok := c.RouteVars[key]
	if !ok {
		return 0, e.New("context.GetInt64RouteVar", e.UnexpectedType,
			fmt.Sprintf("the route has no %s", key))
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, e.New("context.GetInt64RouteVar", e.UnexpectedType,
			fmt.Sprintf("the supplied %s ('%s') is not a positive number", key, raw))
	}

	return id, nil
}

// Respond writes data as the JSON body with the given status
func (c *Context) Respond(data interface{}, statusCode int) error {
	output, err := json.Marshal(data)
	if err != nil {
		glog.Errorf("json.Marshal(%T) %+v", data, err)
		http.Error(c.ResponseWriter, err.Error(), http.StatusInternalServerError)
		return err
	}

	c.ResponseWriter.Header().Set("Content-Type", "application/json")
	c.ResponseWriter.Header().Set("X-Content-Type-Options", "nosniff")
	if statusCode == http.StatusOK && c.GetHTTPMethod() == http.MethodGet {
		c.ResponseWriter.Header().Set("Cache-Control", "no-cache, max-age=0")
	}

	// Prevent chunking
	c.ResponseWriter.Header().Set("Content-Length", strconv.Itoa(len(output)))

	return c.WriteResponse(output, statusCode)
}

// WriteResponse writes the status and, except for HEAD, the body
func (c *Context) WriteResponse(output []byte, statusCode int) error {
	c.ResponseWriter.WriteHeader(statusCode)

	// HEAD requests return no body and are used to check headers
	if c.GetHTTPMethod() == http.MethodHead {
		return nil
	}

	_, err := c.ResponseWriter.Write(output)
	if err == nil {
		return nil
	}

	// "broken pipe" is the client going away, which is expected but logged as
	// a warning in case it hints at network issues
	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.EPIPE) {
		glog.Warningf(
			"Error writing %s response to %s : %+v",
			c.GetHTTPMethod(),
			c.Request.URL.String(),
			err,
		)
		return err
	}

	glog.Errorf(
		"Error writing %s response to %s : %+v",
		c.GetHTTPMethod(),
		c.Request.URL.String(),
		err,
	)
	return err
}

// RespondWithOptions answers an OPTIONS request
func (c *Context) RespondWithOptions(options []string) error {
	c.ResponseWriter.Header().Set("Allow", strings.Join(options, ","))
	c.ResponseWriter.Header().Set("Content-Length", "0")
	c.ResponseWriter.WriteHeader(http.StatusOK)
	return nil
}

// RespondWithStatus writes the status with no body
func (c *Context) RespondWithStatus(statusCode int) error {
	c.ResponseWriter.Header().Set("Content-Length", "0")
	c.ResponseWriter.WriteHeader(statusCode)
	return nil
}

// RespondWithData responds 200 with data
func (c *Context) RespondWithData(data interface{}) error {
	return c.Respond(data, http.StatusOK)
}

// RespondWithCreated responds 201 with data and where to find it
func (c *Context) RespondWithCreated(location string, data interface{}) error {
	c.ResponseWriter.Header().Set("Location", location)
	return c.Respond(data, http.StatusCreated)
}

// RespondWithNoContent responds 204
func (c *Context) RespondWithNoContent() error {
	return c.RespondWithStatus(http.StatusNoContent)
}

// RespondWithError responds with the status matching the class of err.
// Server-side failures are logged and their detail withheld.
func (c *Context) RespondWithError(err error) error {
	statusCode := e.StatusCode(err)

	message := err.Error()
	if statusCode >= http.StatusInternalServerError {
		glog.Errorf(
			"%s %s [%s] %+v",
			c.GetHTTPMethod(),
			c.Request.URL.Path,
			c.RequestID(),
			err,
		)
		message = http.StatusText(statusCode)
		switch {
		case errors.Is(err, e.ErrStoreUnavailable):
			message = e.ErrStoreUnavailable.Error()
		case errors.Is(err, e.ErrCacheUnavailable):
			message = e.ErrCacheUnavailable.Error()
		}
	}

	return c.respondWithErrorBody(message, statusCode, e.Code(err))
}

// RespondWithErrorMessage responds with a custom status and message
func (c *Context) RespondWithErrorMessage(message string, statusCode int) error {
	return c.respondWithErrorBody(message, statusCode, 0)
}

// RespondWithNotFound responds 404
func (c *Context) RespondWithNotFound() error {
	return c.RespondWithErrorMessage(http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

// RespondWithMethodNotAllowed responds 405 and lists the allowed methods
func (c *Context) RespondWithMethodNotAllowed(options []string) error {
	c.ResponseWriter.Header().Set("Allow", strings.Join(options, ","))
	return c.RespondWithErrorMessage(
		http.StatusText(http.StatusMethodNotAllowed),
		http.StatusMethodNotAllowed,
	)
}

func (c *Context) respondWithErrorBody(message string, statusCode int, code e.ErrCode) error {
	return c.Respond(ErrorResponse{
		Status:    statusCode,
		Errors:    []string{message},
		ErrorCode: code,
	}, statusCode)
}

// RequestDecoder unmarshals the request body into v
type RequestDecoder interface {
	Unmarshal(c *Context, v interface{}) error
}

// JSONRequestDecoder decodes application/json bodies
type JSONRequestDecoder struct{}

// Unmarshal decodes the body. A literal null leaves a pointer target nil.
func (d *JSONRequestDecoder) Unmarshal(c *Context, v interface{}) error {
	defer c.Request.Body.Close()
	return json.NewDecoder(c.Request.Body).Decode(v)
}

// FormRequestDecoder decodes application/x-www-form-urlencoded bodies
type FormRequestDecoder struct{}

func (d *FormRequestDecoder) Unmarshal(c *Context, v interface{}) error {
	if c.Request.Form == nil {
		if err := c.Request.ParseForm(); err != nil {
			return err
		}
	}
	return UnmarshalForm(c.Request.PostForm, v)
}

// map of Content-Type -> RequestDecoders
var decoders = map[string]RequestDecoder{
	"application/json":                  new(JSONRequestDecoder),
	"application/x-www-form-urlencoded": new(FormRequestDecoder),
}

// Fill decodes the request body into v using the decoder for the request's
// Content-Type. Failures are invalid input.
func (c *Context) Fill(v interface{}) error {
	ct := c.Request.Header.Get("Content-Type")
	if strings.TrimSpace(ct) == "" {
		ct = "application/x-www-form-urlencoded"
	}

	// ignore charset (after ';')
	ct = strings.TrimSpace(strings.Split(ct, ";")[0])

	decoder, ok := decoders[ct]
	if !ok {
		return e.New("context.Fill", e.BadContentType,
			fmt.Sprintf("cannot decode request for %s data", ct))
	}

	if err := decoder.Unmarshal(c, v); err != nil {
		return e.New("context.Fill", e.InvalidContent,
			fmt.Sprintf("the request body could not be decoded: %v", err))
	}

	return nil
}

// UnmarshalForm fills the struct v points to from form. Fields are matched by
// their json tag, case-insensitively, falling back to the Go field name. A
// nil pointer to a struct is allocated first.
func UnmarshalForm(form url.Values, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("v must be a non-nil pointer")
	}
	rv = rv.Elem()

	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
	}

	switch {
	case rv.Kind() == reflect.Struct:
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			if !rt.Field(i).IsExported() {
				continue
			}
			if err := unmarshalField(form, rt.Field(i), rv.Field(i)); err != nil {
				return err
			}
		}
	case rv.Kind() == reflect.Map && !rv.IsNil():
		for k, vs := range form {
			if len(vs) > 0 {
				rv.SetMapIndex(reflect.ValueOf(k), reflect.ValueOf(vs[0]))
			}
		}
	default:
		return fmt.Errorf("v must point to a struct or a non-nil map type")
	}

	return nil
}

func formName(t reflect.StructField) string {
	if tag := strings.Split(t.Tag.Get("json"), ",")[0]; tag != "" && tag != "-" {
		return tag
	}
	return t.Name
}

func formValues(form url.Values, name string) []string {
	if fvs, ok := form[name]; ok {
		return fvs
	}
	for k, fvs := range form {
		if strings.EqualFold(k, name) {
			return fvs
		}
	}
	return nil
}

func unmarshalField(
	form url.Values,
	t reflect.StructField,
	v reflect.Value,
) error {
	fvs := formValues(form, formName(t))
	if len(fvs) == 0 {
		return nil
	}
	fv := fvs[0]

	switch v.Kind() {
	case reflect.Int, reflect.Int64:
		i, err := strconv.ParseInt(fv, 10, 64)
		if err != nil {
			return fmt.Errorf("%s ('%s') is not a number", formName(t), fv)
		}
		v.SetInt(i)
	case reflect.String:
		v.SetString(fv)
	case reflect.Bool:
		// the following strings convert to true
		// 1,true,on,yes
		v.SetBool(fv == "1" || fv == "true" || fv == "on" || fv == "yes")
	case reflect.Slice:
		if t.Type.Elem().Kind() != reflect.String {
			return fmt.Errorf("%s: only string slices are supported", formName(t))
		}
		sv := reflect.MakeSlice(t.Type, len(fvs), len(fvs))
		for i, fv := range fvs {
			sv.Index(i).SetString(fv)
		}
		v.Set(sv)
	default:
		return fmt.Errorf("%s: unsupported field kind %s", formName(t), v.Kind())
	}

	return nil
}
