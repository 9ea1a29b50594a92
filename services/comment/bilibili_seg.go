package comment

import "barrage/models"

// The seg.so payload is a protobuf message: field 1 is a repeated
// length-delimited element, each element carrying varint fields
// 1=id 2=progress(ms) 3=mode 4=fontsize 5=color 8=ctime and
// length-delimited fields 6=midHash 7=content. Only progress, mode,
// color and content are kept; everything else is skipped by wire type.

func decodeBiliSegment(data []byte) []models.RawComment {
	var out []models.RawComment
	pos := 0
	for pos < len(data) {
		if data[pos] != 0x0a { // field 1, wire type 2
			break
		}
		pos++
		size, n := readVarint(data[pos:])
		if n == 0 {
			break
		}
		pos += n
		end := pos + int(size)
		if end > len(data) {
			break
		}
		if c, ok := decodeBiliElem(data[pos:end]); ok {
			out = append(out, c)
		}
		pos = end
	}
	return out
}

func decodeBiliElem(data []byte) (models.RawComment, bool) {
	c := models.RawComment{HasProgress: true}
	pos := 0
	for pos < len(data) {
		key, n := readVarint(data[pos:])
		if n == 0 {
			return c, false
		}
		pos += n
		field := int(key >> 3)
		wire := int(key & 0x7)

		switch wire {
		case 0: // varint
			v, n := readVarint(data[pos:])
			if n == 0 {
				return c, false
			}
			pos += n
			switch field {
			case 2:
				c.Progress = int64(v)
			case 3:
				c.Mode = int(v)
			case 5:
				c.Color = int(v)
			}
		case 2: // length-delimited
			size, n := readVarint(data[pos:])
			if n == 0 {
				return c, false
			}
			pos += n
			end := pos + int(size)
			if end > len(data) {
				return c, false
			}
			if field == 7 {
				c.Content = string(data[pos:end])
			}
			pos = end
		case 5: // fixed32
			pos += 4
		case 1: // fixed64
			pos += 8
		default:
			return c, false
		}
	}
	return c, c.Content != ""
}

func readVarint(data []byte) (uint64, int) {
	var v uint64
	for i := 0; i < len(data) && i < 10; i++ {
		v |= uint64(data[i]&0x7f) << (7 * i)
		if data[i]&0x80 == 0 {
			return v, i + 1
		}
	}
	return 0, 0
}
