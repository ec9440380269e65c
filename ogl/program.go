// ogl/program.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ogl

import (
	"fmt"
	"strings"

	"github.com/fbogfx/fbogfx/renderer"

	"github.com/go-gl/gl/v3.3-core/gl"
)

// Shaders used with the Device must take their inputs from the
// renderer.VertexAttributes locations and declare the u_projection
// (mat3) and u_texture (sampler2D) uniforms.

const DefaultVertexShader = `
#version 330 core

layout(location = 0) in vec2 a_texcoord;
layout(location = 1) in vec2 a_position;
layout(location = 2) in vec4 a_colour;

uniform mat3 u_projection;

out vec2 v_texcoord;
out vec4 v_colour;

void main() {
    vec3 p = u_projection * vec3(a_position, 1.0);
    gl_Position = vec4(p.xy, 0.0, 1.0);
    v_texcoord = a_texcoord;
    v_colour = a_colour;
}
` + "\x00"

const DefaultFragmentShader = `
#version 330 core

uniform sampler2D u_texture;

in vec2 v_texcoord;
in vec4 v_colour;

out vec4 fragColour;

void main() {
    fragColour = texture(u_texture, v_texcoord) * v_colour;
}
` + "\x00"

// NewProgram compiles and links a shader program and returns its id,
// which is what draw commands refer to it by.
func (d *Device) NewProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	id, err := newProgram(vertexShaderSource, fragmentShaderSource)
	if err != nil {
		return 0, err
	}

	p := &program{
		id:         id,
		projection: gl.GetUniformLocation(id, gl.Str("u_projection\x00")),
		texture:    gl.GetUniformLocation(id, gl.Str("u_texture\x00")),
	}
	if p.projection < 0 {
		gl.DeleteProgram(id)
		return 0, fmt.Errorf("program has no u_projection uniform")
	}
	d.programs[id] = p
	d.lg.Infof("Created program %d", id)
	return id, nil
}

// https://github.com/go-gl/example/blob/master/gl41core-cube/cube.go
func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}

	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, err
	}

	program := gl.CreateProgram()

	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	for _, attr := range renderer.VertexAttributes {
		gl.BindAttribLocation(program, attr.Location, gl.Str(attr.Name+"\x00"))
	}
	gl.LinkProgram(program)

	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)

		return 0, fmt.Errorf("failed to link program: %v", log)
	}

	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)

		return 0, fmt.Errorf("failed to compile %v: %v", source, log)
	}

	return shader, nil
}
