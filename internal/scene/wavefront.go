package scene

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"lightfield-renderer/internal/device"
	"lightfield-renderer/internal/mathutil"
)

type wavefrontMaterial struct {
	name  string
	kd    mathutil.Vec3
	kdTex string
}

// wavefrontReader turns an OBJ file (and its MTL libraries) into meshes.
// Positions and normals have z negated and texture v flipped to match the
// left-handed, top-left-origin conventions of the renderer.
type wavefrontReader struct {
	dir string

	materials  map[string]*wavefrontMaterial
	curMat     *wavefrontMaterial
	vertexList []mathutil.Vec3
	normalList []mathutil.Vec3
	uvList     [][2]float64

	meshes  []*Mesh
	texOf   []string // map_Kd per mesh
	block   string   // name of the enclosing "o" or "g"
	cur     *Mesh
	meshMat *wavefrontMaterial
	corners map[[3]int]uint32
}

// LoadOBJ reads a Wavefront model. Each "o" or "g" block becomes one mesh,
// split further wherever "usemtl" switches material between faces. The
// diffuse colour of a mesh's material is baked into its vertex colours and
// its map_Kd, if any, becomes the mesh texture.
func LoadOBJ(path string) ([]*Mesh, error) {
	return loadOBJ(path, NewTextureCache())
}

func loadOBJ(path string, textures *TextureCache) ([]*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scene: open model: %w", err)
	}
	defer f.Close()

	r := &wavefrontReader{
		dir:       filepath.Dir(path),
		materials: make(map[string]*wavefrontMaterial),
	}
	if err := r.parse(f, path); err != nil {
		return nil, err
	}
	r.closeMesh()
	if len(r.meshes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoGeometry, path)
	}
	for i, m := range r.meshes {
		if r.texOf[i] == "" {
			continue
		}
		img, err := textures.Load(filepath.Join(r.dir, r.texOf[i]))
		if err != nil {
			return nil, err
		}
		m.Diffuse = img
	}
	logger.Infof("loaded %d meshes from %s", len(r.meshes), path)
	return r.meshes, nil
}

func (r *wavefrontReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	return fmt.Errorf("scene: [%s: %d] %s", file, line, fmt.Sprintf(msgFormat, args...))
}

func (r *wavefrontReader) parse(in io.Reader, file string) error {
	lineNum := 0
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "mtllib":
			if len(lineTokens) != 2 {
				return r.emitError(file, lineNum, `unsupported syntax for "mtllib"; expected 1 argument; got %d`, len(lineTokens)-1)
			}
			if err := r.parseMaterialFile(filepath.Join(r.dir, lineTokens[1])); err != nil {
				return r.emitError(file, lineNum, "%v", err)
			}
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(file, lineNum, `unsupported syntax for "usemtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}
			mat, ok := r.materials[lineTokens[1]]
			if !ok {
				return r.emitError(file, lineNum, `undefined material with name "%s"`, lineTokens[1])
			}
			r.useMaterial(mat)
		case "v", "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(file, lineNum, "%v", err)
			}
			v[2] = -v[2]
			if lineTokens[0] == "v" {
				r.vertexList = append(r.vertexList, v)
			} else {
				r.normalList = append(r.normalList, v)
			}
		case "vt":
			v, err := parseVec2(lineTokens)
			if err != nil {
				return r.emitError(file, lineNum, "%v", err)
			}
			r.uvList = append(r.uvList, [2]float64{v[0], 1 - v[1]})
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(file, lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}
			r.closeMesh()
			r.block = lineTokens[1]
			r.openMesh(r.block)
		case "f":
			if r.cur == nil {
				r.block = "default"
				r.openMesh(r.block)
			}
			if err := r.parseFace(lineTokens); err != nil {
				return r.emitError(file, lineNum, "%v", err)
			}
		}
	}
	return scanner.Err()
}

func (r *wavefrontReader) openMesh(name string) {
	r.cur = &Mesh{Name: name}
	r.meshMat = r.curMat
	r.corners = make(map[[3]int]uint32)
}

// useMaterial makes mat active. A mesh carries a single material, so a
// switch after faces were emitted continues the block in a new mesh.
func (r *wavefrontReader) useMaterial(mat *wavefrontMaterial) {
	r.curMat = mat
	if r.cur == nil || mat == r.meshMat {
		return
	}
	if len(r.cur.Indices) == 0 {
		r.meshMat = mat
		return
	}
	r.closeMesh()
	r.openMesh(r.block + "/" + mat.name)
}

func (r *wavefrontReader) closeMesh() {
	if r.cur == nil {
		return
	}
	if len(r.cur.Indices) == 0 {
		logger.Warningf(`dropping mesh "%s" as it contains no polygons`, r.cur.Name)
	} else {
		tex := ""
		if r.meshMat != nil {
			tex = r.meshMat.kdTex
		}
		r.meshes = append(r.meshes, r.cur)
		r.texOf = append(r.texOf, tex)
	}
	r.cur = nil
}

// parseFace triangulates a convex polygon as a fan. Winding is reversed to
// compensate for the z flip.
func (r *wavefrontReader) parseFace(lineTokens []string) error {
	if len(lineTokens) < 4 {
		return fmt.Errorf(`unsupported syntax for "f"; expected at least 3 arguments; got %d`, len(lineTokens)-1)
	}

	col := [4]float64{0.7, 0.7, 0.7, 1}
	if m := r.meshMat; m != nil {
		col = [4]float64{m.kd[0], m.kd[1], m.kd[2], 1}
	}

	corners := make([]uint32, 0, len(lineTokens)-1)
	for arg, tok := range lineTokens[1:] {
		key, err := r.faceCorner(tok)
		if err != nil {
			return fmt.Errorf("face argument %d: %v", arg, err)
		}
		idx, ok := r.corners[key]
		if !ok {
			v := device.Vertex{Pos: r.vertexList[key[0]], Color: col}
			if key[1] >= 0 {
				v.UV = r.uvList[key[1]]
			}
			if key[2] >= 0 {
				v.Normal = r.normalList[key[2]]
			}
			idx = uint32(len(r.cur.Vertices))
			r.cur.Vertices = append(r.cur.Vertices, v)
			r.corners[key] = idx
		}
		corners = append(corners, idx)
	}

	for i := 1; i+1 < len(corners); i++ {
		a, b, c := corners[0], corners[i+1], corners[i]
		r.cur.Indices = append(r.cur.Indices, a, b, c)
		r.fillFaceNormal(a, b, c)
	}
	return nil
}

// fillFaceNormal assigns the face normal to corners that came without one.
func (r *wavefrontReader) fillFaceNormal(a, b, c uint32) {
	vs := r.cur.Vertices
	n := vs[b].Pos.Sub(vs[a].Pos).Cross(vs[c].Pos.Sub(vs[a].Pos)).Normalize()
	for _, i := range [3]uint32{a, b, c} {
		if vs[i].Normal == (mathutil.Vec3{}) {
			vs[i].Normal = n
		}
	}
}

// faceCorner parses "v", "v/vt", "v//vn" or "v/vt/vn" into zero-based
// indices, -1 for absent ones.
func (r *wavefrontReader) faceCorner(tok string) ([3]int, error) {
	key := [3]int{-1, -1, -1}
	parts := strings.Split(tok, "/")
	if len(parts) > 3 || parts[0] == "" {
		return key, fmt.Errorf("malformed vertex reference %q", tok)
	}
	lens := [3]int{len(r.vertexList), len(r.uvList), len(r.normalList)}
	for k, p := range parts {
		if p == "" {
			continue
		}
		i, err := selectFaceCoordIndex(p, lens[k])
		if err != nil {
			return key, err
		}
		key[k] = i
	}
	return key, nil
}

func selectFaceCoordIndex(indexToken string, coordListLen int) (int, error) {
	index, err := strconv.Atoi(indexToken)
	if err != nil {
		return -1, err
	}
	// negative indices count back from the end of the list
	if index < 0 {
		index += coordListLen
	} else {
		index--
	}
	if index < 0 || index >= coordListLen {
		return -1, fmt.Errorf("index %s out of range (%d entries)", indexToken, coordListLen)
	}
	return index, nil
}

func (r *wavefrontReader) parseMaterialFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	lineNum := 0
	var cur *wavefrontMaterial
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}
		if lineTokens[0] == "newmtl" {
			if len(lineTokens) != 2 {
				return r.emitError(path, lineNum, `unsupported syntax for "newmtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}
			cur = &wavefrontMaterial{name: lineTokens[1], kd: mathutil.Vec3{0.7, 0.7, 0.7}}
			r.materials[cur.name] = cur
			continue
		}
		if cur == nil {
			return r.emitError(path, lineNum, `got "%s" without a "newmtl"`, lineTokens[0])
		}
		switch lineTokens[0] {
		case "Kd":
			cur.kd, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(path, lineNum, "%v", err)
			}
		case "map_Kd":
			if len(lineTokens) < 2 {
				return r.emitError(path, lineNum, `unsupported syntax for "map_Kd"; expected 1 argument`)
			}
			// options may precede the file name
			cur.kdTex = lineTokens[len(lineTokens)-1]
		}
	}
	return scanner.Err()
}

func parseVec3(lineTokens []string) (mathutil.Vec3, error) {
	var v mathutil.Vec3
	if len(lineTokens) < 4 {
		return v, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(lineTokens[i+1], 64)
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

func parseVec2(lineTokens []string) ([2]float64, error) {
	var v [2]float64
	if len(lineTokens) < 3 {
		return v, fmt.Errorf(`unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}
	for i := 0; i < 2; i++ {
		f, err := strconv.ParseFloat(lineTokens[i+1], 64)
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}
