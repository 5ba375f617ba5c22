package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/previz"
)

const pickWGSL = `
struct Camera {
    view_proj: mat4x4<f32>,
};
@group(0) @binding(0) var<uniform> camera: Camera;

struct VertexOut {
    @builtin(position) pos: vec4<f32>,
    @location(0) id_color: vec4<f32>,
};

@vertex
fn vs_main(
    @location(0) pos: vec3<f32>,
    @location(2) m0: vec4<f32>,
    @location(3) m1: vec4<f32>,
    @location(4) m2: vec4<f32>,
    @location(5) m3: vec4<f32>,
    @location(6) id_color: vec4<f32>,
) -> VertexOut {
    let model = mat4x4<f32>(m0, m1, m2, m3);
    var out: VertexOut;
    out.pos = camera.view_proj * model * vec4<f32>(pos, 1.0);
    out.id_color = id_color;
    return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
    return in.id_color;
}
`

// PickVertex matches the WGSL vertex input.
type PickVertex struct {
	Pos [3]float32
}

// pickInstance matches the WGSL instance attributes.
type pickInstance struct {
	ModelMat mgl32.Mat4
	IdColor  [4]float32
}

// Mesh is a position-only mesh for the id pass.
type Mesh struct {
	Vertex *wgpu.Buffer
	Count  uint32
}

// NewMesh uploads a triangle list of positions.
func NewMesh(device *wgpu.Device, positions []PickVertex) (*Mesh, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("pick mesh: empty vertex list")
	}
	size := uint64(len(positions) * int(unsafe.Sizeof(PickVertex{})))
	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "PickMeshVertexBuffer",
		Size:  size,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	device.GetQueue().WriteBuffer(buf, 0, unsafe.Slice((*byte)(unsafe.Pointer(&positions[0])), size))
	return &Mesh{Vertex: buf, Count: uint32(len(positions))}, nil
}

// Draw is the payload a previz.PickDrawItem carries into this target.
type Draw struct {
	Model mgl32.Mat4
	Mesh  *Mesh
}

// Readback buffer states.
const (
	readIdle = iota
	readCopied
	readMapping
	readMapped
)

// Target renders pick keys as flat RGBA8 ids into an off-screen texture
// with depth testing, and reads single pixels back. Implements
// previz.PickTarget.
type Target struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	width, height uint32

	idTexture *wgpu.Texture
	idView    *wgpu.TextureView
	depthTex  *wgpu.Texture
	depthView *wgpu.TextureView

	pipeline    *wgpu.RenderPipeline
	camBuffer   *wgpu.Buffer
	camBG       *wgpu.BindGroup
	instBuffer  *wgpu.Buffer
	instCap     uint32
	idReadback  *wgpu.Buffer
	depthReadbk *wgpu.Buffer

	stateMu sync.Mutex
	state   int
}

// NewTarget builds the id pipeline. The target holds no texture until the
// first Resize.
func NewTarget(device *wgpu.Device) (*Target, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "PickIdShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: pickWGSL},
	})
	if err != nil {
		return nil, err
	}

	bgl, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "PickCameraBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: 64,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	layout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return nil, err
	}

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "PickIdPipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: uint64(unsafe.Sizeof(PickVertex{})),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					},
				},
				{
					ArrayStride: uint64(unsafe.Sizeof(pickInstance{})),
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 2},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 3},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 4},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 5},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 64, ShaderLocation: 6},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    wgpu.TextureFormatRGBA8Unorm,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth32Float,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	camBuffer, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "PickCameraBuffer",
		Size:  64,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	camBG, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "PickCameraBG",
		Layout: bgl,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: camBuffer, Size: 64},
		},
	})
	if err != nil {
		return nil, err
	}

	// A single pixel still needs a 256-byte row in a texture-to-buffer copy.
	idReadback, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "PickIdReadback",
		Size:  256,
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return nil, err
	}
	depthReadbk, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "PickDepthReadback",
		Size:  256,
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return nil, err
	}

	return &Target{
		device:      device,
		queue:       device.GetQueue(),
		pipeline:    pipeline,
		camBuffer:   camBuffer,
		camBG:       camBG,
		idReadback:  idReadback,
		depthReadbk: depthReadbk,
	}, nil
}

// Resize (re)creates the id and depth textures.
func (t *Target) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("pick target: invalid size %dx%d", width, height)
	}
	if t.idTexture != nil {
		t.idView.Release()
		t.idTexture.Release()
		t.depthView.Release()
		t.depthTex.Release()
	}
	var err error
	t.idTexture, err = t.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "PickIdTexture",
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return err
	}
	t.idView, err = t.idTexture.CreateView(nil)
	if err != nil {
		return err
	}
	t.depthTex, err = t.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "PickDepthTexture",
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth32Float,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return err
	}
	t.depthView, err = t.depthTex.CreateView(nil)
	if err != nil {
		return err
	}
	t.width, t.height = uint32(width), uint32(height)
	t.stateMu.Lock()
	t.state = readIdle
	t.stateMu.Unlock()
	return nil
}

func viewProj(cam previz.CameraFrame) mgl32.Mat4 {
	proj := mgl32.Perspective(mgl32.DegToRad(cam.FovYDeg), cam.Aspect(), 0.05, 10000)
	view := mgl32.LookAtV(cam.Eye, cam.Eye.Add(cam.Forward), cam.Up)
	return proj.Mul4(view)
}

// Render draws the items into the id buffer in the given order, clearing to
// the zero (no-hit) pixel first.
func (t *Target) Render(cam previz.CameraFrame, items []previz.PickDrawItem) error {
	if t.idTexture == nil {
		return fmt.Errorf("pick target: Resize before Render")
	}

	type batch struct {
		mesh  *Mesh
		first uint32
		count uint32
	}
	instances := make([]pickInstance, 0, len(items))
	batches := make([]batch, 0, len(items))
	for _, it := range items {
		draw, ok := it.Payload.(*Draw)
		if !ok || draw.Mesh == nil {
			return fmt.Errorf("pick target: item payload is %T, want *gpu.Draw", it.Payload)
		}
		px := it.Key.EncodeRGBA()
		instances = append(instances, pickInstance{
			ModelMat: draw.Model,
			IdColor: [4]float32{
				float32(px[0]) / 255, float32(px[1]) / 255,
				float32(px[2]) / 255, float32(px[3]) / 255,
			},
		})
		batches = append(batches, batch{mesh: draw.Mesh, first: uint32(len(instances) - 1), count: 1})
	}

	if len(instances) > 0 {
		count := uint32(len(instances))
		if t.instBuffer == nil || t.instCap < count {
			if t.instBuffer != nil {
				t.instBuffer.Release()
			}
			t.instCap = count + 128
			var err error
			t.instBuffer, err = t.device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: "PickInstanceBuffer",
				Size:  uint64(t.instCap) * uint64(unsafe.Sizeof(pickInstance{})),
				Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
			})
			if err != nil {
				return err
			}
		}
		size := uint64(len(instances) * int(unsafe.Sizeof(pickInstance{})))
		t.queue.WriteBuffer(t.instBuffer, 0, unsafe.Slice((*byte)(unsafe.Pointer(&instances[0])), size))
	}

	vp := viewProj(cam)
	t.queue.WriteBuffer(t.camBuffer, 0, unsafe.Slice((*byte)(unsafe.Pointer(&vp[0])), 64))

	encoder, err := t.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "PickIdPass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       t.idView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 0},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            t.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})
	if len(instances) > 0 {
		pass.SetPipeline(t.pipeline)
		pass.SetBindGroup(0, t.camBG, nil)
		pass.SetVertexBuffer(1, t.instBuffer, 0, t.instBuffer.GetSize())
		for _, b := range batches {
			pass.SetVertexBuffer(0, b.mesh.Vertex, 0, b.mesh.Vertex.GetSize())
			pass.Draw(b.mesh.Count, b.count, 0, b.first)
		}
	}
	pass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	t.queue.Submit(cmd)
	return nil
}

// copyPixel encodes the 1x1 copies of both the id and the depth texture at
// (x, y) into the readback buffers and submits them.
func (t *Target) copyPixel(x, y int) error {
	if t.idTexture == nil {
		return fmt.Errorf("pick target: Resize before readback")
	}
	if x < 0 || y < 0 || uint32(x) >= t.width || uint32(y) >= t.height {
		return fmt.Errorf("pick target: pixel (%d,%d) outside %dx%d", x, y, t.width, t.height)
	}
	encoder, err := t.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	origin := wgpu.Origin3D{X: uint32(x), Y: uint32(y), Z: 0}
	extent := wgpu.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1}
	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{Texture: t.idTexture, MipLevel: 0, Origin: origin},
		&wgpu.ImageCopyBuffer{
			Buffer: t.idReadback,
			Layout: wgpu.TextureDataLayout{Offset: 0, BytesPerRow: 256, RowsPerImage: 1},
		},
		&extent,
	)
	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  t.depthTex,
			MipLevel: 0,
			Origin:   origin,
			Aspect:   wgpu.TextureAspectDepthOnly,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: t.depthReadbk,
			Layout: wgpu.TextureDataLayout{Offset: 0, BytesPerRow: 256, RowsPerImage: 1},
		},
		&extent,
	)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	t.queue.Submit(cmd)
	return nil
}

func (t *Target) mapBoth(onDone func(ok bool)) {
	var mu sync.Mutex
	remaining := 2
	failed := false
	done := func(status wgpu.BufferMapAsyncStatus) {
		mu.Lock()
		defer mu.Unlock()
		if status != wgpu.BufferMapAsyncStatusSuccess {
			failed = true
		}
		remaining--
		if remaining == 0 {
			onDone(!failed)
		}
	}
	t.idReadback.MapAsync(wgpu.MapModeRead, 0, t.idReadback.GetSize(), done)
	t.depthReadbk.MapAsync(wgpu.MapModeRead, 0, t.depthReadbk.GetSize(), done)
}

func (t *Target) readMapped() ([4]uint8, float32) {
	idData := t.idReadback.GetMappedRange(0, 256)
	var px [4]uint8
	copy(px[:], idData[:4])
	t.idReadback.Unmap()

	zData := t.depthReadbk.GetMappedRange(0, 256)
	z := math.Float32frombits(binary.LittleEndian.Uint32(zData[:4]))
	t.depthReadbk.Unmap()
	return px, z
}

// ReadPixel blocks until the pixel at (x, y) is read back.
func (t *Target) ReadPixel(x, y int) ([4]uint8, float32, error) {
	t.stateMu.Lock()
	if t.state != readIdle {
		t.stateMu.Unlock()
		return [4]uint8{}, 0, fmt.Errorf("pick target: readback already in flight")
	}
	t.stateMu.Unlock()

	if err := t.copyPixel(x, y); err != nil {
		return [4]uint8{}, 0, err
	}
	mapped := false
	ok := false
	t.mapBoth(func(success bool) {
		mapped = true
		ok = success
	})
	for !mapped {
		t.device.Poll(true, nil)
	}
	if !ok {
		return [4]uint8{}, 0, fmt.Errorf("pick target: buffer map failed")
	}
	px, z := t.readMapped()
	return px, z, nil
}

// RequestReadPixel starts an asynchronous readback of (x, y).
func (t *Target) RequestReadPixel(x, y int) error {
	t.stateMu.Lock()
	if t.state != readIdle {
		t.stateMu.Unlock()
		return fmt.Errorf("pick target: readback already in flight")
	}
	t.state = readCopied
	t.stateMu.Unlock()

	if err := t.copyPixel(x, y); err != nil {
		t.stateMu.Lock()
		t.state = readIdle
		t.stateMu.Unlock()
		return err
	}
	return nil
}

// PollReadPixel advances the readback state machine without blocking.
// done=true exactly once per request.
func (t *Target) PollReadPixel() ([4]uint8, float32, bool, error) {
	t.stateMu.Lock()
	switch t.state {
	case readCopied:
		t.state = readMapping
		t.stateMu.Unlock()
		t.mapBoth(func(ok bool) {
			t.stateMu.Lock()
			defer t.stateMu.Unlock()
			if ok {
				t.state = readMapped
			} else {
				t.state = readIdle
			}
		})
		t.device.Poll(false, nil)
		return [4]uint8{}, 0, false, nil
	case readMapping:
		t.stateMu.Unlock()
		t.device.Poll(false, nil)
		return [4]uint8{}, 0, false, nil
	case readMapped:
		t.state = readIdle
		t.stateMu.Unlock()
		px, z := t.readMapped()
		return px, z, true, nil
	}
	t.stateMu.Unlock()
	return [4]uint8{}, 0, false, nil
}
