// SPDX-License-Identifier: MPL-2.0

package manifest

import "fmt"

// Encode writes node in format f. The output parses back to an equal node;
// attached flavor children are not written, only the declared names.
func Encode(node Node, f Format) ([]byte, error) {
	c, ok := codecs[f]
	if !ok {
		return nil, fmt.Errorf("encode manifest: unknown format %d", int(f))
	}
	doc, err := toDocument(node)
	if err != nil {
		return nil, fmt.Errorf("encode %s manifest: %w", f, err)
	}
	out, err := c.encode(doc)
	if err != nil {
		return nil, fmt.Errorf("encode %s manifest: %w", f, err)
	}
	return out, nil
}
