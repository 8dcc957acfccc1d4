package gpukernel

import (
	"fmt"

	"github.com/gogpu/naga"
)

// resampleWGSL is the compute kernel for separable bilinear/bicubic
// resampling. The uniform block's algorithm field selects the weight
// function; the host supplies source and destination dimensions and the
// channel count through the same block, and the shader derives the scale
// factor from the dimensions.
const resampleWGSL = `
struct Params {
    src_width: u32,
    src_height: u32,
    dst_width: u32,
    dst_height: u32,
    channels: u32,
    algorithm: u32, // 0 = bilinear, 1 = bicubic (Catmull-Rom)
};

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read> src_pixels: array<f32>;
@group(0) @binding(2) var<storage, read_write> dst_pixels: array<f32>;

fn cubic_weight(x: f32) -> f32 {
    let ax = abs(x);
    if (ax < 1.0) {
        return 1.5 * ax * ax * ax - 2.5 * ax * ax + 1.0;
    } else if (ax < 2.0) {
        return -0.5 * ax * ax * ax + 2.5 * ax * ax - 4.0 * ax + 2.0;
    }
    return 0.0;
}

fn sample_src(x: i32, y: i32, c: u32) -> f32 {
    let cx = clamp(x, 0, i32(params.src_width) - 1);
    let cy = clamp(y, 0, i32(params.src_height) - 1);
    let idx = (u32(cy) * params.src_width + u32(cx)) * params.channels + c;
    return src_pixels[idx];
}

@compute @workgroup_size(8, 8, 1)
fn resample_main(@builtin(global_invocation_id) gid: vec3<u32>) {
    if (gid.x >= params.dst_width || gid.y >= params.dst_height) {
        return;
    }

    let scale_x = f32(params.src_width) / f32(params.dst_width);
    let scale_y = f32(params.src_height) / f32(params.dst_height);
    let u = (f32(gid.x) + 0.5) * scale_x - 0.5;
    let v = (f32(gid.y) + 0.5) * scale_y - 0.5;
    let ix = i32(floor(u));
    let iy = i32(floor(v));
    let fx = u - f32(ix);
    let fy = v - f32(iy);

    for (var c: u32 = 0u; c < params.channels; c = c + 1u) {
        var sum = 0.0;
        var wsum = 0.0;
        if (params.algorithm == 0u) {
            for (var dy: i32 = 0; dy < 2; dy = dy + 1) {
                let wy = select(fy, 1.0 - fy, dy == 0);
                for (var dx: i32 = 0; dx < 2; dx = dx + 1) {
                    let wx = select(fx, 1.0 - fx, dx == 0);
                    let w = wx * wy;
                    sum = sum + w * sample_src(ix + dx, iy + dy, c);
                    wsum = wsum + w;
                }
            }
        } else {
            for (var dy: i32 = -1; dy <= 2; dy = dy + 1) {
                let wy = cubic_weight(f32(dy) - fy);
                for (var dx: i32 = -1; dx <= 2; dx = dx + 1) {
                    let wx = cubic_weight(f32(dx) - fx);
                    let w = wx * wy;
                    sum = sum + w * sample_src(ix + dx, iy + dy, c);
                    wsum = wsum + w;
                }
            }
        }
        let out_idx = (gid.y * params.dst_width + gid.x) * params.channels + c;
        if (wsum > 0.0) {
            dst_pixels[out_idx] = clamp(sum / wsum, 0.0, 1.0);
        } else {
            dst_pixels[out_idx] = 0.0;
        }
    }
}
`

// compiledShader is the SPIR-V form of resampleWGSL, translated via naga.
type compiledShader struct {
	spirv []uint32
}

// compileResampleShader translates the embedded WGSL source to SPIR-V.
// Mirrors the pack's own WGSL→SPIR-V byte-to-word conversion
// (internal/native/shader_helper.go CompileShaderToSPIRV).
func compileResampleShader() (*compiledShader, error) {
	spirvBytes, err := naga.Compile(resampleWGSL)
	if err != nil {
		return nil, fmt.Errorf("gpukernel: compile resample shader: %w", err)
	}

	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return &compiledShader{spirv: words}, nil
}
