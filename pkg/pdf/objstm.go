package pdf

// objectStream is a decoded /Type /ObjStm container
type objectStream struct {
	data    []byte
	first   int64
	numbers []int
	offsets []int64
}

// objectStream loads and caches the object stream with the given number
func (dp *docParser) objectStream(num int) (*objectStream, error) {
	if stm, ok := dp.objStreams[num]; ok {
		return stm, nil
	}

	entry, ok := dp.xref[num]
	if !ok || !entry.InUse || entry.compressed() {
		return nil, errObject(KindMalformedXRef, num, "object stream is not a direct live object")
	}

	p := newParserAt(dp.data, entry.Offset)
	p.resolveLength = dp.lengthResolver()
	_, obj, err := p.ParseIndirectObject()
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(Stream)
	if !ok {
		return nil, errObject(KindMalformedObject, num, "object stream %d is not a stream", num)
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, err
	}

	first, ok := stream.Dictionary.GetInt("First")
	if !ok || first < 0 || first > int64(len(data)) {
		return nil, errObject(KindMalformedObject, num, "object stream missing or invalid First")
	}
	n, ok := stream.Dictionary.GetInt("N")
	if !ok || n < 0 {
		return nil, errObject(KindMalformedObject, num, "object stream missing N")
	}

	stm := &objectStream{data: data, first: first}
	header := NewParserFromBytes(data[:first])
	for i := int64(0); i < n; i++ {
		numObj, err := header.ParseObject()
		if err != nil {
			return nil, err
		}
		offObj, err := header.ParseObject()
		if err != nil {
			return nil, err
		}
		objNum, ok1 := numObj.(Integer)
		off, ok2 := offObj.(Integer)
		if !ok1 || !ok2 {
			return nil, errObject(KindMalformedObject, num, "object stream header is not integer pairs")
		}
		stm.numbers = append(stm.numbers, int(objNum))
		stm.offsets = append(stm.offsets, int64(off))
	}

	dp.objStreams[num] = stm
	dp.structural[num] = true
	return stm, nil
}

// compressedObject reads object objNum stored at index in an object stream
func (dp *docParser) compressedObject(objNum int, entry xrefEntry) (Object, error) {
	stm, err := dp.objectStream(entry.StreamObjNum)
	if err != nil {
		return nil, err
	}

	index := entry.Index
	if index < 0 || index >= len(stm.offsets) || stm.numbers[index] != objNum {
		// some writers get the index wrong; fall back to the header numbers
		index = -1
		for i, n := range stm.numbers {
			if n == objNum {
				index = i
				break
			}
		}
		if index < 0 {
			return nil, errObject(KindMalformedObject, objNum, "not found in object stream %d", entry.StreamObjNum)
		}
	}

	start := stm.first + stm.offsets[index]
	if start < 0 || start > int64(len(stm.data)) {
		return nil, errObject(KindMalformedObject, objNum, "offset outside object stream %d", entry.StreamObjNum)
	}
	return newParserAt(stm.data, start).ParseObject()
}
