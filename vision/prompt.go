package vision

import (
	"fmt"

	"github.com/BaSui01/meshgen/views"
)

// systemPrompt is the fixed instruction sent with every generation
// request. It pins the reply contract: one JSON object, triangular
// faces, zero-based indices.
const systemPrompt = `You are an expert in 3D modeling and 3D understanding. You will be given 6 images showing different sides
(front, back, left, right, top, bottom) of an object. Your task is to recreate the object as a single
closed triangle mesh.

Return ONLY a JSON object with the following structure:
{
    "vertices": [[x1, y1, z1], [x2, y2, z2], ...],
    "faces": [[v1, v2, v3], ...],
    "name": "object_name",
    "description": "brief description"
}

Keep the mesh relatively simple (20-100 vertices) but recognizable.
Ensure all faces are triangles and use proper indexing (0-based).
Carefully analyze all 6 images to create an accurate 3D representation.`

// closingInstruction ends the user message after the six images.
const closingInstruction = "Based on these 6 images, generate a 3D mesh representation of the object."

// BuildRequest assembles the generation request for a complete view
// set. Each image is introduced by a label block naming its side, in
// canonical side order; the same set always yields the same request.
func BuildRequest(set *views.Set) *Request {
	images := set.Images()
	parts := make([]Part, 0, 2*len(images)+1)

	for i, img := range images {
		parts = append(parts, Part{
			Text: fmt.Sprintf("Image %d (%s):", i+1, img.Side),
		})
		parts = append(parts, Part{
			MediaType: img.Format.MediaType(),
			Data:      img.Base64(),
		})
	}

	parts = append(parts, Part{Text: closingInstruction})

	return &Request{
		System: systemPrompt,
		Parts:  parts,
	}
}
