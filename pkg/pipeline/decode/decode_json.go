/*
 * Copyright (C) 2021 IBM, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package decode

import (
	"fmt"
	"math"
	"reflect"

	jsoniter "github.com/json-iterator/go"
	"github.com/labqc/spc-pipeline/pkg/api"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "decode.JSON")

type Decoder interface {
	Decode(in []byte) (*api.SPCRequest, error)
}

type DecodeJSON struct{}

// Decode reads one SPC request. Numbers and numeric strings are accepted where an
// integer is expected, and a single rule name is accepted in place of a rule list.
func (c *DecodeJSON) Decode(in []byte) (*api.SPCRequest, error) {
	log.Debugf("entering DecodeJSON Decode, %d bytes", len(in))
	var raw map[string]interface{}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(in, &raw); err != nil {
		return nil, errors.Wrap(err, "decoding SPC request")
	}
	if raw == nil {
		return nil, errors.New("decoding SPC request: empty document")
	}

	req := &api.SPCRequest{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       exactIntegers,
		Result:           req,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating SPC request decoder")
	}
	if err := dec.Decode(raw); err != nil {
		return nil, errors.Wrap(err, "decoding SPC request")
	}
	return req, nil
}

// exactIntegers keeps weak typing from truncating fractions or turning booleans into
// integer fields.
func exactIntegers(from, to reflect.Kind, data interface{}) (interface{}, error) {
	switch to {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	switch from {
	case reflect.Bool:
		return nil, fmt.Errorf("expected an integer, got boolean %v", data)
	case reflect.Float32, reflect.Float64:
		f := reflect.ValueOf(data).Float()
		if math.IsInf(f, 0) || f != math.Trunc(f) {
			return nil, fmt.Errorf("expected an integer, got %v", data)
		}
	}
	return data, nil
}

func NewDecodeJSON() (Decoder, error) {
	log.Debugf("entering NewDecodeJSON")
	return &DecodeJSON{}, nil
}
