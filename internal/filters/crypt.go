package filters

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rc4"
	"fmt"
	"io"

	"github.com/tsawler/pdfsyntax/internal/buffer"
)

// v2Codec is the RC4 stream cipher used by the V2 security handler.
// Encryption and decryption are the same operation.
type v2Codec struct {
	c *rc4.Cipher
}

func newV2Codec(params Params) (Codec, error) {
	key, ok := keyParam(params)
	if !ok {
		return nil, fmt.Errorf("V2 filter requires a Key parameter")
	}
	c, err := rc4.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &v2Codec{c: c}, nil
}

func (v *v2Codec) Apply(in, out *buffer.Buffer, finish bool) (Status, error) {
	n := in.Len()
	if free := out.Free(); free < n {
		n = free
	}
	v.c.XORKeyStream(out.Data[out.WP:out.WP+n], in.Data[in.RP:in.RP+n])
	in.RP += n
	out.WP += n

	if !in.EOB() {
		return StatusNeedOutput, nil
	}
	if finish {
		return StatusEOF, nil
	}
	return StatusNeedInput, nil
}

// aesKey returns a key valid for AES-128, AES-192 or AES-256.
func aesKey(params Params) ([]byte, error) {
	key, ok := keyParam(params)
	if !ok {
		return nil, fmt.Errorf("AESV2 filter requires a Key parameter")
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	default:
		return nil, fmt.Errorf("invalid AES key size: %d", len(key))
	}
}

// aesEncoder writes the IV followed by the CBC ciphertext of its input,
// padded with PKCS#7 when finished.
type aesEncoder struct {
	mode     cipher.BlockMode
	block    [aes.BlockSize]byte
	n        int
	finished bool
	out      pending
}

func newAESv2Encoder(params Params) (Codec, error) {
	key, err := aesKey(params)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	iv, ok := getBytesParam(params, "IV")
	if ok && len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("invalid AES IV size: %d", len(iv))
	}
	if !ok {
		iv = make([]byte, aes.BlockSize)
		if _, err := io.ReadFull(rand.Reader, iv); err != nil {
			return nil, fmt.Errorf("generating IV: %w", err)
		}
	}

	e := &aesEncoder{mode: cipher.NewCBCEncrypter(block, iv)}
	e.out.add(iv...)
	return e, nil
}

func (e *aesEncoder) seal() {
	var ct [aes.BlockSize]byte
	e.mode.CryptBlocks(ct[:], e.block[:])
	e.out.add(ct[:]...)
	e.n = 0
}

func (e *aesEncoder) Apply(in, out *buffer.Buffer, finish bool) (Status, error) {
	for {
		if !e.out.drain(out) {
			return StatusNeedOutput, nil
		}
		if e.finished {
			return StatusEOF, nil
		}
		if in.EOB() {
			break
		}
		n := copy(e.block[e.n:], in.Bytes())
		in.RP += n
		e.n += n
		if e.n == aes.BlockSize {
			e.seal()
		}
	}

	if !finish {
		return StatusNeedInput, nil
	}

	pad := byte(aes.BlockSize - e.n)
	for i := e.n; i < aes.BlockSize; i++ {
		e.block[i] = pad
	}
	e.seal()
	e.finished = true
	if !e.out.drain(out) {
		return StatusNeedOutput, nil
	}
	return StatusEOF, nil
}

// aesDecoder reads the IV, then decrypts CBC blocks. The last plaintext
// block is held back until the end of the data so its padding can be
// removed.
type aesDecoder struct {
	c        cipher.Block
	mode     cipher.BlockMode
	iv       [aes.BlockSize]byte
	block    [aes.BlockSize]byte
	n        int
	held     []byte
	finished bool
	out      pending
}

func newAESv2Decoder(params Params) (Codec, error) {
	key, err := aesKey(params)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &aesDecoder{c: block}, nil
}

func (d *aesDecoder) Apply(in, out *buffer.Buffer, finish bool) (Status, error) {
	for {
		if !d.out.drain(out) {
			return StatusNeedOutput, nil
		}
		if d.finished {
			return StatusEOF, nil
		}
		if in.EOB() {
			break
		}

		n := copy(d.block[d.n:], in.Bytes())
		in.RP += n
		d.n += n
		if d.n < aes.BlockSize {
			continue
		}
		d.n = 0

		if d.mode == nil {
			d.iv = d.block
			d.mode = cipher.NewCBCDecrypter(d.c, d.iv[:])
			continue
		}
		if d.held != nil {
			d.out.add(d.held...)
		}
		d.held = make([]byte, aes.BlockSize)
		d.mode.CryptBlocks(d.held, d.block[:])
	}

	if !finish {
		return StatusNeedInput, nil
	}

	if d.n != 0 {
		return StatusEOF, fmt.Errorf("AESV2 data is not a multiple of the block size")
	}
	if d.held != nil {
		pad := int(d.held[aes.BlockSize-1])
		if pad == 0 || pad > aes.BlockSize {
			return StatusEOF, fmt.Errorf("invalid AESV2 padding")
		}
		for _, b := range d.held[aes.BlockSize-pad:] {
			if int(b) != pad {
				return StatusEOF, fmt.Errorf("invalid AESV2 padding")
			}
		}
		d.out.add(d.held[:aes.BlockSize-pad]...)
		d.held = nil
	}
	d.finished = true
	if !d.out.drain(out) {
		return StatusNeedOutput, nil
	}
	return StatusEOF, nil
}
