// Command prism-demo opens a window and renders a lit, shadowed scene.
//
//	prism-demo -config prism.json -model assets/teapot.obj -sky assets/sky.hdr
//
// WASD moves, right mouse looks around, left click picks a model.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"Prism3D/internal/config"
	"Prism3D/internal/engine"
	"Prism3D/internal/gpu"
	"Prism3D/internal/lighting"
	"Prism3D/internal/loader"
	"Prism3D/internal/logger"
	"Prism3D/internal/material"
	"Prism3D/internal/renderer"
	"Prism3D/internal/skybox"

	perlin "github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

const (
	gridSize    = 7
	gridSpacing = 4
	terrainSize = 60
	terrainRes  = 96
)

func main() {
	configPath := flag.String("config", "prism.json", "path to the JSON config")
	modelPath := flag.String("model", "", "optional OBJ model to place in the scene")
	skyPath := flag.String("sky", "", "optional sky: cubemap image (cross or strip layout), 2:1 panorama or .hdr")
	seed := flag.Int64("seed", time.Now().UnixNano(), "terrain and scatter seed")
	writeConfig := flag.Bool("write-config", false, "write the effective config and exit")
	flag.Parse()

	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "prism-demo: %v, logging disabled\n", err)
	}
	defer logger.Sync()

	if err := run(*configPath, *modelPath, *skyPath, *seed, *writeConfig); err != nil {
		logger.Log.Error("prism-demo failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(configPath, modelPath, skyPath string, seed int64, writeConfig bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if writeConfig {
		if err := cfg.Save(configPath); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		logger.Log.Info("Config written", zap.String("path", configPath))
		return nil
	}

	eng, err := engine.Open(cfg.Window)
	if err != nil {
		return err
	}
	defer eng.Close()

	r, err := renderer.New(eng.Device(), eng, cfg.Options())
	if err != nil {
		return err
	}
	defer r.Close()

	eng.Attach(r)
	eng.FollowWindow = cfg.Renderer.Width == 0
	r.SetEnvironment(cfg.Environment)

	s := &scene{dev: eng.Device(), r: r, noise: perlin.NewPerlin(2, 2, 3, seed)}
	defer s.release()
	if err := s.build(cfg.MeshCacheDir, modelPath, skyPath); err != nil {
		return err
	}

	eng.Camera.Position = mgl32.Vec3{0, 8, 24}
	eng.Camera.LookAt(mgl32.Vec3{0, 0, 0})
	eng.Behaviours.Add(&engine.Rotator{Model: s.spinner, Speed: 45})
	eng.Behaviours.Add(&engine.Orbiter{
		Center: mgl32.Vec3{0, 10, 0},
		Radius: 12,
		Speed:  0.5,
		Set: func(p mgl32.Vec3) {
			if spot, err := r.Light(s.spot); err == nil {
				spot.SetPositionTarget(p, mgl32.Vec3{})
			}
		},
	})
	eng.SetOnDraw(s.draw)
	eng.SetOnPick(s.pick)
	return eng.Run()
}

// scene owns every mesh, texture and skybox the demo uploads. Models only
// borrow them.
type scene struct {
	dev   gpu.Device
	r     *renderer.Renderer
	noise *perlin.Perlin

	meshes   []*gpu.Mesh
	textures []*gpu.Texture
	sky      *skybox.Skybox

	models  []*renderer.Model
	spinner *renderer.Model
	spot    lighting.ID
}

func (s *scene) upload(data gpu.MeshData) (*gpu.Mesh, error) {
	m, err := s.r.UploadMesh(data)
	if err != nil {
		return nil, err
	}
	s.meshes = append(s.meshes, m)
	return m, nil
}

func (s *scene) build(cacheDir, modelPath, skyPath string) error {
	mats := s.r.Materials()
	opaque, err := mats.Create(material.DiffuseBurley, material.SpecularSchlickGGX,
		gpu.BlendDisabled, gpu.CullBack, material.FlagReceiveShadow|material.FlagSkyIBL)
	if err != nil {
		return err
	}
	glass, err := mats.Create(material.DiffuseLambert, material.SpecularBlinnPhong,
		gpu.BlendAlpha, gpu.CullNone, material.FlagReceiveShadow)
	if err != nil {
		return err
	}

	if err := s.buildTerrain(cacheDir, opaque); err != nil {
		return err
	}
	if err := s.scatter(opaque, glass); err != nil {
		return err
	}
	if modelPath != "" {
		if err := s.loadModel(modelPath, opaque); err != nil {
			return err
		}
	}
	if err := s.buildSky(skyPath); err != nil {
		return err
	}
	return s.buildLights()
}

func (s *scene) buildTerrain(cacheDir string, config material.Config) error {
	build := func() (gpu.MeshData, error) {
		data := loader.Plane(terrainSize, terrainSize, terrainRes, terrainRes)
		for i := range data.Vertices {
			p := &data.Vertices[i].Position
			p[1] = float32(s.noise.Noise2D(float64(p[0])/12, float64(p[2])/12)) * 3
		}
		loader.RecalculateNormals(data.Vertices, data.Indices)
		loader.CalculateTangents(data.Vertices, data.Indices)
		return data, nil
	}

	var data gpu.MeshData
	var err error
	if cacheDir != "" {
		data, err = loader.CachedMesh(filepath.Join(cacheDir, "terrain.mesh"), build)
	} else {
		data, err = build()
	}
	if err != nil {
		return fmt.Errorf("terrain: %w", err)
	}

	mesh, err := s.upload(data)
	if err != nil {
		return err
	}
	ground := s.r.NewModel(mesh)
	ground.Name = "terrain"
	ground.SetConfig(config)
	ground.SetAlbedoColor(0.35, 0.55, 0.3, 1)
	ground.SetMaterialPBR(0, 0.9)
	ground.SetPosition(0, -2, 0)
	s.models = append(s.models, ground)
	return nil
}

// scatter places cubes and spheres on a grid, skipping cells where the
// noise is low.
func (s *scene) scatter(opaque, glass material.Config) error {
	cube, err := s.upload(loader.Cube(1, 1, 1))
	if err != nil {
		return err
	}
	sphere, err := s.upload(loader.Sphere(0.6, 24, 32))
	if err != nil {
		return err
	}

	half := float32(gridSize-1) / 2
	for x := 0; x < gridSize; x++ {
		for z := 0; z < gridSize; z++ {
			n := float32(s.noise.Noise2D(float64(x)/3, float64(z)/3))
			if n < -0.1 {
				continue
			}
			px := (float32(x) - half) * gridSpacing
			pz := (float32(z) - half) * gridSpacing

			var m *renderer.Model
			if (x+z)%2 == 0 {
				m = s.r.NewModel(cube)
				m.Name = fmt.Sprintf("cube_%d_%d", x, z)
				m.SetConfig(opaque)
				m.SetMaterialPBR(float32(x)/gridSize, float32(z)/gridSize)
			} else {
				m = s.r.NewModel(sphere)
				m.Name = fmt.Sprintf("sphere_%d_%d", x, z)
				m.SetConfig(glass)
				m.SetAlbedoColor(0.4, 0.6, 0.9, 0.5)
				m.Shadow = renderer.ShadowCastOff
			}
			m.SetPosition(px, 1+n*2, pz)
			s.models = append(s.models, m)
		}
	}

	s.spinner = s.r.NewModel(cube)
	s.spinner.Name = "spinner"
	s.spinner.SetConfig(opaque)
	s.spinner.SetAlbedoColor(0.9, 0.3, 0.2, 1)
	s.spinner.SetScale(2, 2, 2)
	s.spinner.SetPosition(0, 5, 0)
	s.models = append(s.models, s.spinner)
	return nil
}

func (s *scene) loadModel(path string, fallback material.Config) error {
	obj, err := loader.LoadModel(path, false)
	if err != nil {
		return err
	}
	textures := s.diffuseMaps(obj)

	surfaces := make([]renderer.Surface, 0, len(obj.Parts))
	for _, part := range obj.Parts {
		mesh, err := s.upload(part.Data)
		if err != nil {
			return err
		}
		mat := material.New(fallback)
		if desc, ok := obj.Materials[part.Material]; ok {
			desc.Apply(&mat)
			mat.Albedo.Texture = textures[desc.DiffuseMap]
		}
		surfaces = append(surfaces, renderer.Surface{Mesh: mesh, Material: mat})
	}
	m := renderer.NewModel(surfaces...)
	m.Name = filepath.Base(path)
	m.SetPosition(0, 0, -10)
	s.models = append(s.models, m)
	return nil
}

// diffuseMaps decodes the distinct diffuse maps of obj in parallel and
// uploads them. Missing maps leave the surface on the white default.
func (s *scene) diffuseMaps(obj *loader.Object) map[string]*gpu.Texture {
	var paths []string
	seen := make(map[string]bool)
	for _, desc := range obj.Materials {
		if desc.DiffuseMap != "" && !seen[desc.DiffuseMap] {
			seen[desc.DiffuseMap] = true
			paths = append(paths, desc.DiffuseMap)
		}
	}
	textures := make(map[string]*gpu.Texture, len(paths))
	images, err := loader.LoadImages(paths)
	if err != nil {
		logger.Log.Warn("Diffuse maps skipped", zap.Error(err))
		return textures
	}
	for i, img := range images {
		tex, err := s.r.LoadTexture(img)
		if err != nil {
			logger.Log.Warn("Texture upload failed", zap.String("path", paths[i]), zap.Error(err))
			continue
		}
		s.textures = append(s.textures, tex)
		textures[paths[i]] = tex
	}
	return textures
}

func (s *scene) buildSky(path string) error {
	var err error
	switch {
	case path == "":
		s.sky, err = skybox.Gradient(s.dev, 128,
			mgl32.Vec3{0.2, 0.4, 0.8}, mgl32.Vec3{0.75, 0.8, 0.9}, mgl32.Vec3{0.25, 0.22, 0.2})
	case strings.EqualFold(filepath.Ext(path), ".hdr"):
		hdr, loadErr := loader.LoadHDR(path)
		if loadErr != nil {
			return fmt.Errorf("sky: %w", loadErr)
		}
		s.sky, err = skybox.FromEquirect(s.dev, hdr.Width, hdr.Height, hdr.Pix, 0)
	default:
		img, loadErr := loader.LoadImage(path)
		if loadErr != nil {
			return fmt.Errorf("sky: %w", loadErr)
		}
		if b := img.Bounds(); b.Dx() == 2*b.Dy() {
			s.sky, err = skybox.FromEquirectImage(s.dev, img, 0)
		} else {
			s.sky, err = skybox.FromImage(s.dev, img, skybox.LayoutAuto)
		}
	}
	if err != nil {
		return err
	}
	s.r.Environment().SetSkybox(s.sky)
	return nil
}

// sunPosition lies along the sun direction, high enough that the whole
// scene is in front of the shadow near plane.
var sunPosition = mgl32.Vec3{16, 40, 12}

func (s *scene) addSun() (*lighting.Light, error) {
	sun, err := s.newLight(lighting.Directional, 2048)
	if err != nil {
		return nil, err
	}
	sun.SetPositionTarget(sunPosition, mgl32.Vec3{})
	sun.SetEnergy(2.5)
	sun.SetColor(mgl32.Vec3{1, 0.95, 0.85})
	return sun, nil
}

func (s *scene) buildLights() error {
	if _, err := s.addSun(); err != nil {
		return err
	}

	spotID, err := s.r.CreateLight(lighting.Spot, 1024)
	if err != nil {
		return err
	}
	s.spot = spotID
	spot, _ := s.r.Light(spotID)
	spot.SetPositionTarget(mgl32.Vec3{8, 10, 8}, mgl32.Vec3{0, 0, 0})
	spot.SetRange(40)
	spot.SetInnerCutoff(20)
	spot.SetOuterCutoff(30)
	spot.SetEnergy(6)
	spot.SetColor(mgl32.Vec3{1, 0.6, 0.3})
	spot.SetActive(true)

	omni, err := s.newLight(lighting.Omni, 512)
	if err != nil {
		return err
	}
	omni.SetPosition(mgl32.Vec3{-6, 4, 6})
	omni.SetRange(20)
	omni.SetEnergy(4)
	omni.SetColor(mgl32.Vec3{0.3, 0.6, 1})
	return nil
}

func (s *scene) newLight(t lighting.Type, shadowResolution int) (*lighting.Light, error) {
	id, err := s.r.CreateLight(t, shadowResolution)
	if err != nil {
		return nil, err
	}
	l, err := s.r.Light(id)
	if err != nil {
		return nil, err
	}
	l.SetActive(true)
	return l, nil
}

func (s *scene) draw(r *renderer.Renderer) error {
	for _, m := range s.models {
		if err := r.Draw(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *scene) pick(ray renderer.Ray) {
	i := renderer.Pick(ray, s.models)
	if i < 0 {
		logger.Log.Info("Picked nothing")
		return
	}
	logger.Log.Info("Picked model", zap.String("name", s.models[i].Name), zap.Int("index", i))
}

func (s *scene) release() {
	s.r.Environment().SetSkybox(nil)
	s.sky.Release()
	for _, t := range s.textures {
		t.Release()
	}
	for _, m := range s.meshes {
		m.Release()
	}
}
