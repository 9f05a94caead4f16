package device

import (
	"math"

	"lightfield-renderer/internal/mathutil"
)

// clipVertex is a vertex after the vertex stage, with its varyings.
type clipVertex struct {
	pos    mathutil.Vec4
	world  mathutil.Vec3
	normal mathutil.Vec3
	color  [4]float64
	uv     [2]float64
	viewZ  float64
}

func lerpVertex(a, b clipVertex, t float64) clipVertex {
	var v clipVertex
	for k := 0; k < 4; k++ {
		v.pos[k] = a.pos[k] + (b.pos[k]-a.pos[k])*t
		v.color[k] = a.color[k] + (b.color[k]-a.color[k])*t
	}
	for k := 0; k < 3; k++ {
		v.world[k] = a.world[k] + (b.world[k]-a.world[k])*t
		v.normal[k] = a.normal[k] + (b.normal[k]-a.normal[k])*t
	}
	v.uv[0] = a.uv[0] + (b.uv[0]-a.uv[0])*t
	v.uv[1] = a.uv[1] + (b.uv[1]-a.uv[1])*t
	v.viewZ = a.viewZ + (b.viewZ-a.viewZ)*t
	return v
}

// DrawIndexed runs the mesh through the vertex stage
// clip = P * ((V * M * v) - offset), clips against the near plane and
// rasterizes every triangle into the bound targets. There is no face
// culling. Without a bound target, a pixel shader or camera constants
// the draw does nothing and is counted as skipped.
func (c *Context) DrawIndexed(m *Mesh) {
	c.stats.DrawCalls++

	cam, ok := constantAt[CameraConstants](c.vsConst[VSSlotCamera])
	if !ok || c.nTargets == 0 || c.shader == nil || m == nil || m.Released() || !c.targetsAlive() {
		c.stats.SkippedDraws++
		logger.Debugf("draw skipped: targets=%d shader=%t camera=%t", c.nTargets, c.shader != nil, ok)
		return
	}

	obj, ok := constantAt[ObjectConstants](c.vsConst[VSSlotObject])
	if !ok {
		obj = ObjectConstants{Model: mathutil.Mat4Identity(), Normal: mathutil.Mat4Identity()}
	}
	off, _ := constantAt[OffsetConstants](c.vsConst[VSSlotOffset])

	if cap(c.scratch) < len(m.vertices) {
		c.scratch = make([]clipVertex, len(m.vertices))
	}
	verts := c.scratch[:len(m.vertices)]
	for i, v := range m.vertices {
		world := obj.Model.MulPoint(v.Pos)
		view := cam.View.MulPoint(world).Sub(off.Offset)
		verts[i] = clipVertex{
			pos:    cam.Projection.MulVec4(view.Point()),
			world:  world,
			normal: obj.Normal.MulDir(v.Normal).Normalize(),
			color:  v.Color,
			uv:     v.UV,
			viewZ:  view[2],
		}
	}

	st := &ShaderState{ctx: c}
	var poly [4]clipVertex
	for i := 0; i+2 < len(m.indices); i += 3 {
		tri := [3]clipVertex{verts[m.indices[i]], verts[m.indices[i+1]], verts[m.indices[i+2]]}
		n := clipNear(tri, &poly)
		for k := 1; k+1 < n; k++ {
			c.rasterize(st, [3]clipVertex{poly[0], poly[k], poly[k+1]}, true)
			c.stats.Triangles++
		}
	}
}

// DrawFullScreen draws one triangle generated from vertex ids 0..2 without
// a vertex buffer. It covers the viewport, so the pixel shader runs once per
// target texel with U, V in [0, 1]. Depth is neither tested nor written.
func (c *Context) DrawFullScreen() {
	if c.nTargets == 0 || c.shader == nil || !c.targetsAlive() {
		c.stats.SkippedDraws++
		return
	}
	c.stats.FullScreenPasses++

	var tri [3]clipVertex
	for id := 0; id < 3; id++ {
		u := float64((id << 1) & 2)
		v := float64(id & 2)
		tri[id] = clipVertex{
			pos: mathutil.Vec4{u*2 - 1, 1 - v*2, 0, 1},
			uv:  [2]float64{u, v},
		}
	}
	c.rasterize(&ShaderState{ctx: c}, tri, false)
}

func (c *Context) targetsAlive() bool {
	for _, t := range c.targets[:c.nTargets] {
		if t.Released() {
			return false
		}
	}
	return c.ds == nil || !c.ds.Released()
}

// clipNear clips a triangle against the z >= 0 plane in clip space, writing
// a convex polygon of up to four vertices into out and returning its size.
func clipNear(tri [3]clipVertex, out *[4]clipVertex) int {
	n := 0
	for i := 0; i < 3; i++ {
		a := tri[i]
		b := tri[(i+1)%3]
		ain := a.pos[2] >= 0 && a.pos[3] > 0
		bin := b.pos[2] >= 0 && b.pos[3] > 0
		if ain {
			out[n] = a
			n++
		}
		if ain != bin {
			t := a.pos[2] / (a.pos[2] - b.pos[2])
			out[n] = lerpVertex(a, b, t)
			n++
		}
	}
	return n
}

// rasterize is the barycentric scan loop. Pixel centres sit at +0.5; NDC +y
// maps to row 0.
func (c *Context) rasterize(st *ShaderState, tri [3]clipVertex, depthTest bool) {
	vw, vh := c.vpW, c.vpH
	var sx, sy, sz, invW [3]float64
	for i := range tri {
		p := tri[i].pos
		if p[3] <= 1e-12 {
			return
		}
		iw := 1 / p[3]
		sx[i] = (p[0]*iw + 1) * 0.5 * float64(vw)
		sy[i] = (1 - p[1]*iw) * 0.5 * float64(vh)
		sz[i] = p[2] * iw
		invW[i] = iw
	}

	det := (sy[1]-sy[2])*(sx[0]-sx[2]) + (sx[2]-sx[1])*(sy[0]-sy[2])
	if det > -1e-12 && det < 1e-12 {
		return
	}
	invDet := 1.0 / det

	minX := int(math.Floor(math.Min(math.Min(sx[0], sx[1]), sx[2])))
	maxX := int(math.Ceil(math.Max(math.Max(sx[0], sx[1]), sx[2])))
	minY := int(math.Floor(math.Min(math.Min(sy[0], sy[1]), sy[2])))
	maxY := int(math.Ceil(math.Max(math.Max(sy[0], sy[1]), sy[2])))
	if minX < 0 {
		minX = 0
	}
	if maxX >= vw {
		maxX = vw - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= vh {
		maxY = vh - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	dy12 := sy[1] - sy[2]
	dx21 := sx[2] - sx[1]
	dy20 := sy[2] - sy[0]
	dx02 := sx[0] - sx[2]

	ds := c.ds
	if !depthTest {
		ds = nil
	}

	var frag Fragment
	var out Output
	for y := minY; y <= maxY; y++ {
		dsy := float64(y) + 0.5 - sy[2]
		for x := minX; x <= maxX; x++ {
			dsx := float64(x) + 0.5 - sx[2]
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			z := w0*sz[0] + w1*sz[1] + w2*sz[2]
			if z < 0 || z > 1 {
				continue
			}
			idx := y*vw + x
			if ds != nil && z >= float64(ds.depth[idx]) {
				continue
			}

			// perspective-correct weights
			p0 := w0 * invW[0]
			p1 := w1 * invW[1]
			p2 := w2 * invW[2]
			inv := 1 / (p0 + p1 + p2)
			p0 *= inv
			p1 *= inv
			p2 *= inv

			a, b, d := &tri[0], &tri[1], &tri[2]
			frag.X, frag.Y = x, y
			frag.Depth = z
			frag.U = p0*a.uv[0] + p1*b.uv[0] + p2*d.uv[0]
			frag.V = p0*a.uv[1] + p1*b.uv[1] + p2*d.uv[1]
			frag.ViewDepth = p0*a.viewZ + p1*b.viewZ + p2*d.viewZ
			for k := 0; k < 3; k++ {
				frag.World[k] = p0*a.world[k] + p1*b.world[k] + p2*d.world[k]
				frag.Normal[k] = p0*a.normal[k] + p1*b.normal[k] + p2*d.normal[k]
			}
			for k := 0; k < 4; k++ {
				frag.Color[k] = p0*a.color[k] + p1*b.color[k] + p2*d.color[k]
			}

			out = Output{}
			if !c.shader(st, &frag, &out) {
				continue
			}
			for k := 0; k < c.nTargets; k++ {
				c.targets[k].Store(x, y, out[k])
			}
			if ds != nil {
				ds.depth[idx] = float32(z)
			}
		}
	}
}
