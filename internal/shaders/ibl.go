package shaders

// cubeFace maps a face index and face coordinates in [-1, 1] to the
// direction sampled there, in GL face orientation.
const cubeFace = `
vec3 faceDirection(int face, vec2 uv)
{
    if (face == 0) return vec3(1.0, -uv.y, -uv.x);
    if (face == 1) return vec3(-1.0, -uv.y, uv.x);
    if (face == 2) return vec3(uv.x, 1.0, uv.y);
    if (face == 3) return vec3(uv.x, -1.0, -uv.y);
    if (face == 4) return vec3(uv.x, -uv.y, 1.0);
    return vec3(-uv.x, -uv.y, -1.0);
}
`

// EquirectFragment renders face uFace of a cubemap from an equirectangular
// panorama whose first row is the zenith. Drawn with Fullscreen.
var EquirectFragment = Version + cubeFace + `
in vec2 vTexCoord;

uniform sampler2D uTexEquirect;
uniform int uFace;

out vec4 FragColor;

const float PI = 3.14159265359;

void main()
{
    vec3 dir = normalize(faceDirection(uFace, vTexCoord * 2.0 - 1.0));
    vec2 uv = vec2(atan(dir.z, dir.x) / (2.0 * PI) + 0.5, 0.5 - asin(clamp(dir.y, -1.0, 1.0)) / PI);
    FragColor = vec4(texture(uTexEquirect, uv).rgb, 1.0);
}
`

// IrradianceFragment convolves uCubeSky over the hemisphere around each
// direction of face uFace. Drawn with Fullscreen.
var IrradianceFragment = Version + cubeFace + `
in vec2 vTexCoord;

uniform samplerCube uCubeSky;
uniform int uFace;

out vec4 FragColor;

const float PI = 3.14159265359;
const float SAMPLE_DELTA = 0.025;

void main()
{
    vec3 N = normalize(faceDirection(uFace, vTexCoord * 2.0 - 1.0));
    vec3 up = abs(N.y) < 0.999 ? vec3(0.0, 1.0, 0.0) : vec3(0.0, 0.0, 1.0);
    vec3 right = normalize(cross(up, N));
    up = cross(N, right);

    vec3 sum = vec3(0.0);
    float count = 0.0;
    for (float phi = 0.0; phi < 2.0 * PI; phi += SAMPLE_DELTA) {
        for (float theta = 0.0; theta < 0.5 * PI; theta += SAMPLE_DELTA) {
            vec3 t = vec3(sin(theta) * cos(phi), sin(theta) * sin(phi), cos(theta));
            vec3 dir = t.x * right + t.y * up + t.z * N;
            sum += texture(uCubeSky, dir).rgb * cos(theta) * sin(theta);
            count += 1.0;
        }
    }
    FragColor = vec4(PI * sum / count, 1.0);
}
`
