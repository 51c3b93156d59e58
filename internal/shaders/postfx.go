package shaders

// Blur is one direction of the 5-tap Gaussian. uDirection is the texel
// step in source texture space, so the same program downsamples.
var BlurFragment = Version + `
in vec2 vTexCoord;

uniform sampler2D uTexture;
uniform vec2 uDirection;

out vec4 FragColor;

const float weights[5] = float[](0.0625, 0.25, 0.375, 0.25, 0.0625);

void main()
{
    vec3 result = vec3(0.0);
    for (int i = 0; i < 5; i++) {
        vec2 offset = uDirection * float(i - 2);
        result += texture(uTexture, vTexCoord + offset).rgb * weights[i];
    }
    FragColor = vec4(result, 1.0);
}
`

// UpsampleFragment is drawn with additive blending into the next larger
// pyramid level.
var UpsampleFragment = Version + `
in vec2 vTexCoord;

uniform sampler2D uTexture;

out vec4 FragColor;

void main()
{
    FragColor = vec4(texture(uTexture, vTexCoord).rgb, 1.0);
}
`

// CompositeFragment applies bloom, fog, tonemapping, gamma and color
// adjustments. Mode values match the environment package enums.
var CompositeFragment = Version + `
in vec2 vTexCoord;

uniform sampler2D uTexColor;
uniform sampler2D uTexBloom;
uniform sampler2D uTexDepth;

uniform int uBloomMode;
uniform float uBloomIntensity;

uniform int uFogMode;
uniform vec3 uFogColor;
uniform float uFogStart;
uniform float uFogEnd;
uniform float uFogDensity;
uniform float uNear;
uniform float uFar;

uniform int uTonemapMode;
uniform float uExposure;
uniform float uWhite;

uniform float uBrightness;
uniform float uContrast;
uniform float uSaturation;

out vec4 FragColor;

float linearizeDepth(float depth)
{
    float z = depth * 2.0 - 1.0;
    return (2.0 * uNear * uFar) / (uFar + uNear - z * (uFar - uNear));
}

vec3 bloom(vec3 color)
{
    vec3 b = texture(uTexBloom, vTexCoord).rgb * uBloomIntensity;
    if (uBloomMode == 1) {
        return color + b;
    }
    if (uBloomMode == 2) {
        b = clamp(b, 0.0, 1.0);
        vec3 c = clamp(color, 0.0, 1.0);
        return max(color + b - c * b, 0.0);
    }
    return color;
}

vec3 fog(vec3 color)
{
    if (uFogMode == 0) {
        return color;
    }
    float d = linearizeDepth(texture(uTexDepth, vTexCoord).r);
    float f = 0.0;
    if (uFogMode == 1) {
        f = clamp((d - uFogStart) / max(uFogEnd - uFogStart, 1e-4), 0.0, 1.0);
    } else if (uFogMode == 2) {
        f = 1.0 - exp(-uFogDensity * d);
    } else {
        f = 1.0 - exp(-pow(uFogDensity * d, 2.0));
    }
    return mix(color, uFogColor, clamp(f, 0.0, 1.0));
}

vec3 hable(vec3 x)
{
    const float A = 0.15, B = 0.50, C = 0.10, D = 0.20, E = 0.02, F = 0.30;
    return ((x * (A * x + C * B) + D * E) / (x * (A * x + B) + D * F)) - E / F;
}

vec3 tonemap(vec3 color)
{
    color *= uExposure;
    if (uTonemapMode == 1) {
        float w2 = uWhite * uWhite;
        return (color * (1.0 + color / w2)) / (1.0 + color);
    }
    if (uTonemapMode == 2) {
        vec3 curr = hable(color * 2.0);
        vec3 whiteScale = 1.0 / hable(vec3(uWhite));
        return curr * whiteScale;
    }
    if (uTonemapMode == 3) {
        const float a = 2.51, b = 0.03, c = 2.43, d = 0.59, e = 0.14;
        return clamp((color * (a * color + b)) / (color * (c * color + d) + e), 0.0, 1.0);
    }
    return color;
}

vec3 adjust(vec3 color)
{
    color *= uBrightness;
    color = (color - 0.5) * uContrast + 0.5;
    float gray = dot(color, vec3(0.2126, 0.7152, 0.0722));
    return mix(vec3(gray), color, uSaturation);
}

void main()
{
    vec3 color = texture(uTexColor, vTexCoord).rgb;
    color = bloom(color);
    color = fog(color);
    color = tonemap(color);
    color = pow(max(color, 0.0), vec3(1.0 / 2.2));
    color = adjust(color);
    FragColor = vec4(clamp(color, 0.0, 1.0), 1.0);
}
`
