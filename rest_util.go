package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func ReadRequestBody[T any](r *http.Request) (T, error) {
	var req T
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, err
	}
	return req, nil
}

func WriteResponse[T any](w http.ResponseWriter, resp T, status int) {
	data, err := json.Marshal(resp)
	if err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

type Result struct {
	result any
	status int
}

func OK[T any](value T) Result {
	return Result{
		result: value,
		status: http.StatusOK,
	}
}

func BadRequest[T any](value T) Result {
	return Result{
		result: value,
		status: http.StatusBadRequest,
	}
}

func NotFound[T any](value T) Result {
	return Result{
		result: value,
		status: http.StatusNotFound,
	}
}

func InternalError(err error) Result {
	return Result{
		result: err.Error(),
		status: http.StatusInternalServerError,
	}
}

func MapPost[F any](app chi.Router, path string, handler func(context.Context, F) Result) {
	app.Post(path, func(w http.ResponseWriter, r *http.Request) {
		zap.L().Info("POST " + path)
		body, err := ReadRequestBody[F](r)
		if err != nil {
			zap.L().Error("failed POST", zap.String("path", path), zap.Error(err))
			WriteResponse(w, NewErrorResponse(path, err.Error()), http.StatusBadRequest)
			return
		}
		_WriteResult(w, path, handler(r.Context(), body))
	})
}

// MapGet binds query parameters to the json tagged fields of F.
func MapGet[F any](app chi.Router, path string, handler func(context.Context, F) Result) {
	var val F
	typ := reflect.TypeOf(val)
	type _Param struct {
		index int
		name  string
		kind  reflect.Kind
	}
	params := make([]_Param, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("json")
		if tag == "" {
			continue
		}
		switch field.Type.Kind() {
		case reflect.Bool:
			params = append(params, _Param{i, tag, reflect.Bool})
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			params = append(params, _Param{i, tag, reflect.Int})
		case reflect.Float32, reflect.Float64:
			params = append(params, _Param{i, tag, reflect.Float64})
		case reflect.String:
			params = append(params, _Param{i, tag, reflect.String})
		}
	}
	app.Get(path, func(w http.ResponseWriter, r *http.Request) {
		zap.L().Debug("GET " + path)
		query := r.URL.Query()
		t := reflect.New(typ).Elem()
		for _, param := range params {
			value := query.Get(param.name)
			if value == "" {
				continue
			}
			f := t.Field(param.index)
			var err error
			switch param.kind {
			case reflect.Bool:
				var b bool
				b, err = strconv.ParseBool(value)
				f.SetBool(b)
			case reflect.Int:
				var num int64
				num, err = strconv.ParseInt(value, 10, 64)
				f.SetInt(num)
			case reflect.Float64:
				var num float64
				num, err = strconv.ParseFloat(value, 64)
				f.SetFloat(num)
			case reflect.String:
				f.SetString(value)
			}
			if err != nil {
				WriteResponse(w, NewErrorResponse(path, "invalid parameter "+param.name), http.StatusBadRequest)
				return
			}
		}
		_WriteResult(w, path, handler(r.Context(), t.Interface().(F)))
	})
}

func _WriteResult(w http.ResponseWriter, path string, res Result) {
	if res.status != http.StatusOK {
		zap.L().Error("failed request", zap.String("path", path), zap.Int("status", res.status), zap.Any("error", res.result))
		WriteResponse(w, NewErrorResponse(path, res.result), res.status)
		return
	}
	WriteResponse(w, res.result, res.status)
}
