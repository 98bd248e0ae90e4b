// Package nbt is a minimal reader for Mojang's NBT binary format, just
// enough to extract servers.dat's multiplayer server list.
package nbt

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/quasar/launchercore/internal/errs"
)

const (
	tagEnd byte = iota
	tagByte
	tagShort
	tagInt
	tagLong
	tagFloat
	tagDouble
	tagByteArray
	tagString
	tagList
	tagCompound
	tagIntArray
	tagLongArray
)

// Server is one entry from servers.dat's "servers" list.
type Server struct {
	Name string
	IP   string
	Icon string
}

// ParseServersDat reads a servers.dat file, transparently gunzipping it if
// gzip-magic-prefixed, and returns its server list.
func ParseServersDat(data []byte) ([]Server, error) {
	r := bytes.NewReader(data)
	var src io.Reader = r

	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, errs.Wrap(errs.SchemaInvalid, "ungzipping servers.dat", err)
		}
		defer gz.Close()
		src = gz
	}

	br := bufio.NewReader(src)
	d := &decoder{r: br}

	_, root, err := d.readNamedTag()
	if err != nil {
		return nil, errs.Wrap(errs.SchemaInvalid, "decoding servers.dat", err)
	}
	compound, ok := root.(map[string]any)
	if !ok {
		return nil, errs.New(errs.SchemaInvalid, "servers.dat root is not a compound tag")
	}

	rawServers, ok := compound["servers"].([]any)
	if !ok {
		return nil, nil
	}

	var out []Server
	for _, entry := range rawServers {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		s := Server{}
		if name, ok := m["name"].(string); ok {
			s.Name = name
		}
		if ip, ok := m["ip"].(string); ok {
			s.IP = ip
		}
		if icon, ok := m["icon"].(string); ok {
			s.Icon = icon
		}
		out = append(out, s)
	}
	return out, nil
}

// decoder walks an NBT byte stream. Values are represented as plain Go
// types: string, int64 family widened as needed, []any for lists, and
// map[string]any for compounds — enough to navigate servers.dat without a
// full typed tag tree.
type decoder struct {
	r *bufio.Reader
}

func (d *decoder) readNamedTag() (string, any, error) {
	tagType, err := d.r.ReadByte()
	if err != nil {
		return "", nil, err
	}
	if tagType == tagEnd {
		return "", nil, nil
	}
	name, err := d.readString()
	if err != nil {
		return "", nil, err
	}
	val, err := d.readPayload(tagType)
	if err != nil {
		return "", nil, err
	}
	return name, val, nil
}

func (d *decoder) readPayload(tagType byte) (any, error) {
	switch tagType {
	case tagByte:
		b, err := d.r.ReadByte()
		return int64(int8(b)), err
	case tagShort:
		var v int16
		err := binary.Read(d.r, binary.BigEndian, &v)
		return int64(v), err
	case tagInt:
		var v int32
		err := binary.Read(d.r, binary.BigEndian, &v)
		return int64(v), err
	case tagLong:
		var v int64
		err := binary.Read(d.r, binary.BigEndian, &v)
		return v, err
	case tagFloat:
		var v float32
		err := binary.Read(d.r, binary.BigEndian, &v)
		return float64(v), err
	case tagDouble:
		var v float64
		err := binary.Read(d.r, binary.BigEndian, &v)
		return v, err
	case tagByteArray:
		n, err := d.readInt32()
		if err != nil {
			return nil, err
		}
		buf := make([]byte, n)
		_, err = io.ReadFull(d.r, buf)
		return buf, err
	case tagString:
		return d.readString()
	case tagList:
		return d.readList()
	case tagCompound:
		return d.readCompound()
	case tagIntArray:
		n, err := d.readInt32()
		if err != nil {
			return nil, err
		}
		out := make([]int32, n)
		for i := range out {
			if err := binary.Read(d.r, binary.BigEndian, &out[i]); err != nil {
				return nil, err
			}
		}
		return out, nil
	case tagLongArray:
		n, err := d.readInt32()
		if err != nil {
			return nil, err
		}
		out := make([]int64, n)
		for i := range out {
			if err := binary.Read(d.r, binary.BigEndian, &out[i]); err != nil {
				return nil, err
			}
		}
		return out, nil
	default:
		return nil, errs.New(errs.SchemaInvalid, "unknown NBT tag type")
	}
}

func (d *decoder) readString() (string, error) {
	var length uint16
	if err := binary.Read(d.r, binary.BigEndian, &length); err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func (d *decoder) readInt32() (int32, error) {
	var v int32
	err := binary.Read(d.r, binary.BigEndian, &v)
	return v, err
}

func (d *decoder) readList() ([]any, error) {
	elemType, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}
	count, err := d.readInt32()
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, count)
	for i := int32(0); i < count; i++ {
		if elemType == tagEnd {
			continue
		}
		val, err := d.readPayload(elemType)
		if err != nil {
			return nil, err
		}
		out = append(out, val)
	}
	return out, nil
}

func (d *decoder) readCompound() (map[string]any, error) {
	out := make(map[string]any)
	for {
		name, val, err := d.readNamedTag()
		if err != nil {
			return nil, err
		}
		if name == "" && val == nil {
			break
		}
		out[name] = val
	}
	return out, nil
}
