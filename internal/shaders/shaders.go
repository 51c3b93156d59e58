// Package shaders holds the GLSL sources for every program the renderer
// compiles. Sources are complete except for the material program, whose
// defines are injected by Material.
package shaders

import "strings"

// Version is prepended to every stage.
const Version = "#version 410 core\n"

// MaxLights must match the renderer's per-draw light limit.
const MaxLights = 8

// Shadowed lights per draw, by sampler kind. With six material samplers
// plus the two sky cubes this fills the sixteen units GL 4.1 guarantees.
const (
	MaxShadowMaps  = 4
	MaxShadowCubes = 4
)

// Fullscreen draws a single triangle from gl_VertexID; no vertex buffer
// is bound.
var Fullscreen = Version + `
out vec2 vTexCoord;

void main()
{
    vec2 pos = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
    vTexCoord = pos;
    gl_Position = vec4(pos * 2.0 - 1.0, 0.0, 1.0);
}
`

var DepthVertex = Version + `
layout(location = 0) in vec3 aPosition;

uniform mat4 uMatMVP;

void main()
{
    gl_Position = uMatMVP * vec4(aPosition, 1.0);
}
`

var DepthFragment = Version + `
void main()
{
}
`

var DepthCubeVertex = Version + `
layout(location = 0) in vec3 aPosition;

uniform mat4 uMatModel;
uniform mat4 uMatMVP;

out vec3 vFragPos;

void main()
{
    vFragPos = vec3(uMatModel * vec4(aPosition, 1.0));
    gl_Position = uMatMVP * vec4(aPosition, 1.0);
}
`

// DepthCubeFragment writes the normalized distance to the light.
var DepthCubeFragment = Version + `
in vec3 vFragPos;

uniform vec3 uViewPos;
uniform float uFar;

layout(location = 0) out float FragDistance;

void main()
{
    FragDistance = length(vFragPos - uViewPos) / uFar;
}
`

var SkyboxVertex = Version + `
layout(location = 0) in vec3 aPosition;

uniform mat4 uMatView;
uniform mat4 uMatProj;
uniform vec4 uQuatSkybox;

out vec3 vDirection;

vec3 rotate(vec3 v, vec4 q)
{
    return v + 2.0 * cross(q.xyz, cross(q.xyz, v) + q.w * v);
}

void main()
{
    vDirection = rotate(aPosition, uQuatSkybox);
    vec4 pos = uMatProj * mat4(mat3(uMatView)) * vec4(aPosition, 1.0);
    gl_Position = pos.xyww;
}
`

var SkyboxFragment = Version + `
in vec3 vDirection;

uniform samplerCube uCubeSky;

layout(location = 0) out vec4 FragColor;
layout(location = 1) out vec4 FragBright;

void main()
{
    FragColor = vec4(texture(uCubeSky, vDirection).rgb, 1.0);
    FragBright = vec4(0.0);
}
`

// DebugDepthFragment shows a 2D depth map as linear gray.
var DebugDepthFragment = Version + `
in vec2 vTexCoord;

uniform sampler2D uTexture;
uniform float uNear;
uniform float uFar;

out vec4 FragColor;

void main()
{
    float z = texture(uTexture, vTexCoord).r * 2.0 - 1.0;
    float linear = (2.0 * uNear * uFar) / (uFar + uNear - z * (uFar - uNear));
    FragColor = vec4(vec3(linear / uFar), 1.0);
}
`

// DebugDepthCubeFragment lays the six faces of a distance cubemap out in a
// 3x2 grid: +X -X +Y on top, -Y +Z -Z below.
var DebugDepthCubeFragment = Version + `
in vec2 vTexCoord;

uniform samplerCube uTexture;

out vec4 FragColor;

void main()
{
    vec2 grid = vTexCoord * vec2(3.0, 2.0);
    int face = int(floor(grid.x)) + (grid.y >= 1.0 ? 0 : 3);
    vec2 uv = fract(grid) * 2.0 - 1.0;

    vec3 dir;
    if (face == 0) dir = vec3(1.0, -uv.y, -uv.x);
    else if (face == 1) dir = vec3(-1.0, -uv.y, uv.x);
    else if (face == 2) dir = vec3(uv.x, 1.0, uv.y);
    else if (face == 3) dir = vec3(uv.x, -1.0, -uv.y);
    else if (face == 4) dir = vec3(uv.x, -uv.y, 1.0);
    else dir = vec3(-uv.x, -uv.y, -1.0);

    FragColor = vec4(vec3(texture(uTexture, dir).r), 1.0);
}
`

// WithDefines inserts #define lines after the version directive.
func WithDefines(source string, defines []string) string {
	if len(defines) == 0 {
		return source
	}
	var b strings.Builder
	b.WriteString(Version)
	for _, d := range defines {
		b.WriteString("#define ")
		b.WriteString(d)
		b.WriteByte('\n')
	}
	b.WriteString(strings.TrimPrefix(source, Version))
	return b.String()
}
