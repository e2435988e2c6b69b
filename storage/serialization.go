// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/stilbar/core"
)

// CompoundMUS is the MUS serializer for core.Compound, used by the badger
// backend. The record is small enough that the serializer is maintained by
// hand. Timestamps travel as Unix microseconds.
var CompoundMUS = compoundMUS{}

type compoundMUS struct{}

func (s compoundMUS) Marshal(v core.Compound, bs []byte) (n int) {
	n = ord.String.Marshal(string(v.Identity), bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += ord.String.Marshal(v.Code, bs[n:])
	n += ord.String.Marshal(v.Structure, bs[n:])
	n += varint.Int.Marshal(v.Num, bs[n:])
	n += varint.Int64.Marshal(v.InsertedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(v.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (s compoundMUS) Unmarshal(bs []byte) (v core.Compound, n int, err error) {
	var (
		n1       int
		identity string
	)
	identity, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Identity = core.ID(identity)
	v.Name, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Code, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Structure, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Num, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt = time.UnixMicro(micros).UTC()
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt = time.UnixMicro(micros).UTC()
	return
}

func (s compoundMUS) Size(v core.Compound) (size int) {
	size = ord.String.Size(string(v.Identity))
	size += ord.String.Size(v.Name)
	size += ord.String.Size(v.Code)
	size += ord.String.Size(v.Structure)
	size += varint.Int.Size(v.Num)
	size += varint.Int64.Size(v.InsertedAt.UnixMicro())
	size += varint.Int64.Size(v.UpdatedAt.UnixMicro())
	return size
}

// MarshalCompound serializes a Compound to bytes.
func MarshalCompound(compound *core.Compound) []byte {
	buf := make([]byte, CompoundMUS.Size(*compound))
	CompoundMUS.Marshal(*compound, buf)
	return buf
}

// UnmarshalCompound deserializes a Compound from bytes.
func UnmarshalCompound(data []byte) (*core.Compound, error) {
	compound, _, err := CompoundMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &compound, nil
}
