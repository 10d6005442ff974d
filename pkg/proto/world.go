package proto

import "github.com/koskev/lazymc/pkg/proto/nbt"

// LobbyDimension names the single synthesised dimension the fake lobby
// world offers; it intentionally shares a name with the registry entry
// below so JoinGame's dimension_type field and world_name line up.
const LobbyDimension = "minecraft:the_lazy_lobby"

// BuildDimensionCodec assembles the minimal registry NBT modern clients
// require in JoinGame's dimension codec: one dimension_type entry (16
// blocks high, no ambient light) and one empty-void worldgen/biome
// entry. Both registries need at least one element for the client to
// accept the packet at all.
func BuildDimensionCodec() []byte {
	root := nbt.NewCompound("")
	root.Compound("minecraft:dimension_type", func(reg *nbt.Compound) {
		reg.String("type", "minecraft:dimension_type")
		reg.ListOfCompounds("value", []func(*nbt.Compound){
			func(e *nbt.Compound) {
				e.String("name", LobbyDimension)
				e.Int("id", 0)
				e.Compound("element", dimensionTypeElement)
			},
		})
	})
	root.Compound("minecraft:worldgen/biome", func(reg *nbt.Compound) {
		reg.String("type", "minecraft:worldgen/biome")
		reg.ListOfCompounds("value", []func(*nbt.Compound){
			func(e *nbt.Compound) {
				e.String("name", "minecraft:the_void")
				e.Int("id", 0)
				e.Compound("element", biomeElement)
			},
		})
	})
	return root.Encode()
}

func dimensionTypeElement(e *nbt.Compound) {
	e.Byte("piglin_safe", 0)
	e.Byte("natural", 0)
	e.Float("ambient_light", 0)
	e.String("infiniburn", "minecraft:infiniburn_nether")
	e.Byte("respawn_anchor_works", 0)
	e.Byte("has_skylight", 1)
	e.Byte("bed_works", 0)
	e.String("effects", "minecraft:the_end")
	e.Byte("has_raids", 0)
	e.Int("min_y", 0)
	e.Int("height", 16)
	e.Int("logical_height", 16)
	e.Double("coordinate_scale", 1)
	e.Byte("ultrawarm", 0)
	e.Byte("has_ceiling", 0)
}

func biomeElement(e *nbt.Compound) {
	e.String("precipitation", "none")
	e.Float("temperature", 0.5)
	e.Float("downfall", 0.5)
	e.Compound("effects", func(fx *nbt.Compound) {
		fx.Int("sky_color", 0)
		fx.Int("water_color", 0)
		fx.Int("fog_color", 0)
		fx.Int("water_fog_color", 0)
	})
}
