//go:build glfw

package glfw

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
	glfw3 "github.com/go-gl/glfw/v3.3/glfw"

	"github.com/1broseidon/winloop/platform"
)

// The vertex shader derives one oversized triangle from gl_VertexID that
// covers the viewport. Texture row 0 maps to the top edge.
const vertexSource = `
#version 330 core
out vec2 uv;
void main() {
    vec2 p = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
    uv = vec2(p.x, 1.0 - p.y);
    gl_Position = vec4(p * 2.0 - 1.0, 0.0, 1.0);
}
` + "\x00"

const fragmentSource = `
#version 330 core
in vec2 uv;
uniform sampler2D frame;
out vec4 color;
void main() {
    color = texture(frame, uv);
}
` + "\x00"

// initGL makes w's context current and creates its program, vertex array
// and frame texture. Function pointers are loaded with the first context.
func (b *Backend) initGL(w *window) error {
	return catch("init gl", func() {
		w.win.MakeContextCurrent()
		if !b.glReady {
			if err := gl.Init(); err != nil {
				panic(err)
			}
			b.glReady = true
			b.logger.Debug("gl ready", "version", gl.GoStr(gl.GetString(gl.VERSION)))
		}
		// Present must not block on the display's refresh; pacing comes
		// from the refresh ticks.
		glfw3.SwapInterval(0)

		prog, err := makeProgram(vertexSource, fragmentSource)
		if err != nil {
			panic(err)
		}
		w.program = prog
		gl.GenVertexArrays(1, &w.vao)
		gl.GenTextures(1, &w.tex)
		gl.BindTexture(gl.TEXTURE_2D, w.tex)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		gl.BindTexture(gl.TEXTURE_2D, 0)
	})
}

func (b *Backend) releaseGL(w *window) {
	w.win.MakeContextCurrent()
	if w.tex != 0 {
		gl.DeleteTextures(1, &w.tex)
	}
	if w.vao != 0 {
		gl.DeleteVertexArrays(1, &w.vao)
	}
	if w.program != 0 {
		gl.DeleteProgram(w.program)
	}
	glfw3.DetachCurrentContext()
}

// Present uploads buf into the window's texture, draws it and swaps. The
// upload copies buf before returning.
func (b *Backend) Present(h platform.NativeHandle, buf *platform.PixelBuffer) error {
	return b.present(h, buf, nil)
}

// PresentRegions updates only rects of the texture, which keeps the rest of
// the previous frame, then redraws the whole window from it.
func (b *Backend) PresentRegions(h platform.NativeHandle, buf *platform.PixelBuffer, rects []platform.Rect) error {
	return b.present(h, buf, rects)
}

func (b *Backend) present(h platform.NativeHandle, buf *platform.PixelBuffer, rects []platform.Rect) error {
	w, err := b.lookup(h)
	if err != nil {
		return err
	}
	// A partial update needs texture storage of the frame's size.
	if w.texW != buf.Width || w.texH != buf.Height {
		rects = nil
	}
	err = catch("present", func() {
		w.win.MakeContextCurrent()
		fw, fh := w.win.GetFramebufferSize()
		gl.Viewport(0, 0, int32(fw), int32(fh))

		gl.BindTexture(gl.TEXTURE_2D, w.tex)
		if rects == nil {
			gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(buf.Width), int32(buf.Height), 0,
				gl.BGRA, gl.UNSIGNED_BYTE, gl.Ptr(packFrame(buf)))
			w.texW, w.texH = buf.Width, buf.Height
		}
		for _, r := range rects {
			gl.TexSubImage2D(gl.TEXTURE_2D, 0, int32(r.X), int32(r.Y), int32(r.Width), int32(r.Height),
				gl.BGRA, gl.UNSIGNED_BYTE, gl.Ptr(packRect(buf, r)))
		}

		gl.UseProgram(w.program)
		gl.BindVertexArray(w.vao)
		gl.DrawArrays(gl.TRIANGLES, 0, 3)
		gl.BindVertexArray(0)
		gl.UseProgram(0)
		gl.BindTexture(gl.TEXTURE_2D, 0)

		w.win.SwapBuffers()
	})
	if err != nil {
		return err
	}
	w.inFlight = true
	return nil
}

// CompletePresent waits for the GL commands of the last frame to finish.
func (b *Backend) CompletePresent(h platform.NativeHandle) error {
	w, err := b.lookup(h)
	if err != nil {
		return err
	}
	if !w.inFlight {
		return nil
	}
	w.inFlight = false
	return catch("finish", func() {
		w.win.MakeContextCurrent()
		gl.Finish()
	})
}

func makeShader(src string, kind uint32) (uint32, error) {
	sh := gl.CreateShader(kind)
	csrc, free := gl.Strs(src)
	defer free()
	gl.ShaderSource(sh, 1, csrc, nil)
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &n)
		log := strings.Repeat("\x00", int(n))
		gl.GetShaderInfoLog(sh, n, nil, gl.Str(log))
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("compile shader: %s", strings.TrimRight(log, "\x00"))
	}
	return sh, nil
}

func makeProgram(vsSrc, fsSrc string) (uint32, error) {
	vs, err := makeShader(vsSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := makeShader(fsSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}
	prog := gl.CreateProgram()
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	gl.LinkProgram(prog)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &n)
		log := strings.Repeat("\x00", int(n))
		gl.GetProgramInfoLog(prog, n, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link program: %s", strings.TrimRight(log, "\x00"))
	}
	return prog, nil
}
