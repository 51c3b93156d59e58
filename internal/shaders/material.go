package shaders

// Material returns the material program with defines injected into both
// stages. The fragment stage writes HDR color to location 0 and the
// bright-pass color to location 1.
func Material(vertexDefines, fragmentDefines []string) (vertex, fragment string) {
	return WithDefines(materialVertex, vertexDefines), WithDefines(materialFragment, fragmentDefines)
}

var materialVertex = Version + `
layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec2 aTexCoord;
layout(location = 2) in vec3 aNormal;
layout(location = 3) in vec4 aTangent;
layout(location = 4) in vec4 aColor;

uniform mat4 uMatModel;
uniform mat4 uMatNormal;
uniform mat4 uMatMVP;

out vec3 vPosition;
out vec2 vTexCoord;
out vec3 vNormal;
out vec4 vColor;
#ifdef MAP_NORMAL
out mat3 vTBN;
#endif

void main()
{
    vTexCoord = aTexCoord;
#ifdef VERTEX_COLOR
    vColor = aColor;
#else
    vColor = vec4(1.0);
#endif

#ifndef DIFFUSE_UNSHADED
    vPosition = vec3(uMatModel * vec4(aPosition, 1.0));
    vNormal = normalize(mat3(uMatNormal) * aNormal);
#ifdef MAP_NORMAL
    vec3 T = normalize(mat3(uMatNormal) * aTangent.xyz);
    vec3 B = cross(vNormal, T) * aTangent.w;
    vTBN = mat3(T, B, vNormal);
#endif
#endif

    gl_Position = uMatMVP * vec4(aPosition, 1.0);
}
`

var materialFragment = Version + `
#define MAX_LIGHTS 8
#define MAX_SHADOW_MAPS 4
#define MAX_SHADOW_CUBES 4

#define DIRLIGHT 0
#define SPOTLIGHT 1
#define OMNILIGHT 2

struct Light {
    vec3 color;
    vec3 position;
    vec3 direction;
    float energy;
    float range;
    float attenuation;
    float innerCutOff;
    float outerCutOff;
    float shadowBias;
    float shadowFar;
    int shadowIndex;
    int type;
    bool enabled;
    bool shadow;
};

in vec3 vPosition;
in vec2 vTexCoord;
in vec3 vNormal;
in vec4 vColor;
#ifdef MAP_NORMAL
in mat3 vTBN;
#endif

uniform sampler2D uTexAlbedo;
uniform vec4 uColAlbedo;

uniform sampler2D uTexMetalness;
uniform float uValMetalness;
uniform sampler2D uTexRoughness;
uniform float uValRoughness;

uniform sampler2D uTexEmission;
uniform vec3 uColEmission;
uniform float uValEmissionEnergy;

uniform sampler2D uTexNormal;

uniform sampler2D uTexAO;
uniform float uValAOLightAffect;

uniform samplerCube uCubeSky;
uniform samplerCube uCubeIrradiance;
uniform vec4 uQuatSkybox;
uniform bool uHasSkybox;

uniform Light uLights[MAX_LIGHTS];
uniform mat4 uMatLightVP[MAX_LIGHTS];
uniform sampler2D uShadowMaps[MAX_SHADOW_MAPS];
uniform samplerCube uShadowCubes[MAX_SHADOW_CUBES];

uniform vec3 uColAmbient;
uniform vec3 uViewPos;
uniform float uBloomHdrThreshold;

layout(location = 0) out vec4 FragColor;
layout(location = 1) out vec4 FragBright;

const float PI = 3.14159265359;

vec3 rotate(vec3 v, vec4 q)
{
    return v + 2.0 * cross(q.xyz, cross(q.xyz, v) + q.w * v);
}

float schlickWeight(float cosTheta)
{
    float m = clamp(1.0 - cosTheta, 0.0, 1.0);
    float m2 = m * m;
    return m2 * m2 * m;
}

vec3 fresnelSchlick(float cosTheta, vec3 F0)
{
    return F0 + (1.0 - F0) * schlickWeight(cosTheta);
}

float diffuseTerm(float NdotL, float NdotV, float LdotH, float roughness)
{
#if defined(DIFFUSE_BURLEY) || defined(DIFFUSE_DISNEY)
    float FD90 = 0.5 + 2.0 * LdotH * LdotH * roughness;
    float FdV = 1.0 + (FD90 - 1.0) * schlickWeight(NdotV);
    float FdL = 1.0 + (FD90 - 1.0) * schlickWeight(NdotL);
    return FdV * FdL * NdotL / PI;
#elif defined(DIFFUSE_PHONG)
    return NdotL;
#elif defined(DIFFUSE_TOON)
    return smoothstep(0.0, 0.05, NdotL);
#else
    return NdotL / PI;
#endif
}

vec3 specularTerm(vec3 F0, float NdotL, float NdotV, float NdotH, float LdotH, float roughness)
{
#if defined(SPECULAR_SCHLICK_GGX) || defined(SPECULAR_DISNEY)
    float alpha = roughness * roughness;
    float a2 = alpha * alpha;
    float denom = NdotH * NdotH * (a2 - 1.0) + 1.0;
    float D = a2 / (PI * denom * denom);
    float k = alpha * 0.5;
    float G = (NdotL / (NdotL * (1.0 - k) + k)) * (NdotV / (NdotV * (1.0 - k) + k));
    vec3 F = fresnelSchlick(LdotH, F0);
    return D * G * F / max(4.0 * NdotL * NdotV, 1e-4) * NdotL;
#elif defined(SPECULAR_BLINN_PHONG)
    float shininess = max(2.0 / (roughness * roughness * roughness * roughness + 1e-4) - 2.0, 1.0);
    return F0 * pow(NdotH, shininess) * NdotL;
#elif defined(SPECULAR_TOON)
    float shininess = max(2.0 / (roughness * roughness + 1e-4), 1.0);
    return F0 * step(0.5, pow(NdotH, shininess)) * NdotL;
#else
    return vec3(0.0);
#endif
}

#ifdef RECEIVE_SHADOW
float shadowOmni(int i, vec3 N, vec3 L)
{
    vec3 fragToLight = vPosition - uLights[i].position;
    float closest = texture(uShadowCubes[uLights[i].shadowIndex], fragToLight).r * uLights[i].shadowFar;
    float bias = uLights[i].shadowBias * (1.0 - dot(N, L));
    return length(fragToLight) - bias > closest ? 0.0 : 1.0;
}

float shadowProjected(int i, vec3 N, vec3 L)
{
    vec4 p = uMatLightVP[i] * vec4(vPosition, 1.0);
    vec3 proj = p.xyz / p.w * 0.5 + 0.5;
    if (proj.z > 1.0) {
        return 1.0;
    }
    float bias = max(uLights[i].shadowBias * (1.0 - dot(N, L)), uLights[i].shadowBias * 0.1);
    vec2 texel = 1.0 / vec2(textureSize(uShadowMaps[uLights[i].shadowIndex], 0));
    float lit = 0.0;
    for (int x = -1; x <= 1; x++) {
        for (int y = -1; y <= 1; y++) {
            float depth = texture(uShadowMaps[uLights[i].shadowIndex], proj.xy + vec2(x, y) * texel).r;
            lit += proj.z - bias > depth ? 0.0 : 1.0;
        }
    }
    return lit / 9.0;
}
#endif

void main()
{
    vec4 albedo = texture(uTexAlbedo, vTexCoord) * uColAlbedo * vColor;

#ifdef DIFFUSE_UNSHADED
    FragColor = albedo;
    FragBright = vec4(0.0);
#else
    float metalness = texture(uTexMetalness, vTexCoord).b * uValMetalness;
    float roughness = clamp(texture(uTexRoughness, vTexCoord).g * uValRoughness, 0.05, 1.0);

#ifdef MAP_NORMAL
    vec3 N = normalize(vTBN * (texture(uTexNormal, vTexCoord).rgb * 2.0 - 1.0));
#else
    vec3 N = normalize(vNormal);
#endif

    vec3 V = normalize(uViewPos - vPosition);
    float NdotV = max(dot(N, V), 1e-4);
    vec3 F0 = mix(vec3(0.04), albedo.rgb, metalness);

    float ao = 1.0;
#ifdef MAP_AO
    ao = texture(uTexAO, vTexCoord).r;
    float lightAO = mix(1.0, ao, uValAOLightAffect);
#else
    float lightAO = 1.0;
#endif

    vec3 direct = vec3(0.0);
    for (int i = 0; i < MAX_LIGHTS; i++) {
        if (!uLights[i].enabled) {
            continue;
        }

        vec3 L;
        float falloff = 1.0;
        if (uLights[i].type == DIRLIGHT) {
            L = -normalize(uLights[i].direction);
        } else {
            vec3 toLight = uLights[i].position - vPosition;
            float dist = length(toLight);
            L = toLight / max(dist, 1e-4);
            if (uLights[i].range > 0.0) {
                falloff = pow(clamp(1.0 - dist / uLights[i].range, 0.0, 1.0), uLights[i].attenuation);
            }
            if (uLights[i].type == SPOTLIGHT) {
                float theta = dot(L, -normalize(uLights[i].direction));
                float eps = max(uLights[i].innerCutOff - uLights[i].outerCutOff, 1e-4);
                falloff *= clamp((theta - uLights[i].outerCutOff) / eps, 0.0, 1.0);
            }
        }
        if (falloff <= 0.0) {
            continue;
        }

        float NdotL = max(dot(N, L), 0.0);
        if (NdotL <= 0.0) {
            continue;
        }
        vec3 H = normalize(V + L);
        float NdotH = max(dot(N, H), 0.0);
        float LdotH = max(dot(L, H), 0.0);

        float visibility = 1.0;
#ifdef RECEIVE_SHADOW
        if (uLights[i].shadow) {
            visibility = uLights[i].type == OMNILIGHT ? shadowOmni(i, N, L) : shadowProjected(i, N, L);
        }
#endif

        vec3 kD = (1.0 - fresnelSchlick(LdotH, F0)) * (1.0 - metalness);
        vec3 radiance = uLights[i].color * uLights[i].energy * falloff * visibility;
        vec3 diffuse = kD * albedo.rgb * diffuseTerm(NdotL, NdotV, LdotH, roughness);
        vec3 specular = specularTerm(F0, NdotL, NdotV, NdotH, LdotH, roughness);
        direct += (diffuse + specular) * radiance * lightAO;
    }

    vec3 ambient = uColAmbient * albedo.rgb;
#ifdef SKY_IBL
    if (uHasSkybox) {
        vec3 R = rotate(reflect(-V, N), uQuatSkybox);
        vec3 irradiance = texture(uCubeIrradiance, rotate(N, uQuatSkybox)).rgb;
        vec3 reflection = texture(uCubeSky, R).rgb;
        vec3 F = fresnelSchlick(NdotV, F0);
        vec3 kD = (1.0 - F) * (1.0 - metalness);
        ambient = kD * irradiance * albedo.rgb + reflection * F * (1.0 - roughness);
    }
#endif
    ambient *= ao;

    vec3 emission = vec3(0.0);
#ifdef MAP_EMISSION
    emission = texture(uTexEmission, vTexCoord).rgb * uColEmission * uValEmissionEnergy;
#endif

    vec3 color = direct + ambient + emission;
    FragColor = vec4(color, albedo.a);

    float luminance = dot(color, vec3(0.2126, 0.7152, 0.0722));
    FragBright = luminance > uBloomHdrThreshold ? vec4(color, 1.0) : vec4(0.0, 0.0, 0.0, 1.0);
#endif
}
`
